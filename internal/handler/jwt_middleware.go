package handler

import (
	"context"
	"net/http"
	"strings"

	"vecinosml-pc5/internal/service"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRole
)

// JWTAuth valida el Bearer token contra los claims tipados de esta API
// (service.AuthClaims) y deja uid y role en el contexto del request.
// Solo se acepta HS256; cualquier otro alg se rechaza en el parser.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	secretBytes := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, hadPrefix := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !hadPrefix || raw == "" {
				http.Error(w, "falta el header Authorization: Bearer <token>", http.StatusUnauthorized)
				return
			}

			var claims service.AuthClaims
			token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
				return secretBytes, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "token inválido o vencido", http.StatusUnauthorized)
				return
			}
			if claims.UserID <= 0 {
				http.Error(w, "token sin uid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly corta todo lo que no venga con role == "admin". Se monta
// después de JWTAuth, que es quien puebla el contexto.
func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != "admin" {
				http.Error(w, "solo admin", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext devuelve el uid del token, o 0 fuera de una ruta
// autenticada.
func UserIDFromContext(ctx context.Context) int {
	id, _ := ctx.Value(ctxKeyUserID).(int)
	return id
}

// RoleFromContext devuelve el role del token, o "" fuera de una ruta
// autenticada.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ctxKeyRole).(string)
	return role
}
