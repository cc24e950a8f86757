package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vecinosml-pc5/internal/service"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "secreto-de-prueba"

func mintToken(t *testing.T, method jwt.SigningMethod, claims service.AuthClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func freshClaims(userID int, role string) service.AuthClaims {
	return service.AuthClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTAuthPopulatesContext(t *testing.T) {
	var gotID int
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/me/ratings", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.SigningMethodHS256, freshClaims(42, "user")))
	rec := httptest.NewRecorder()

	JWTAuth(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, esperaba 200", rec.Code)
	}
	if gotID != 42 || gotRole != "user" {
		t.Errorf("contexto = (uid=%d, role=%q), esperaba (42, user)", gotID, gotRole)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("el handler no debería ejecutarse con token rechazado")
	})
	mw := JWTAuth(testSecret)(next)

	cases := []struct {
		name   string
		header string
	}{
		{"sin header", ""},
		{"sin prefijo Bearer", mintToken(t, jwt.SigningMethodHS256, freshClaims(42, "user"))},
		{"alg distinto de HS256", "Bearer " + mintToken(t, jwt.SigningMethodHS512, freshClaims(42, "user"))},
		{"token vencido", "Bearer " + mintToken(t, jwt.SigningMethodHS256, service.AuthClaims{
			UserID: 42,
			Role:   "user",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})},
		{"sin uid", "Bearer " + mintToken(t, jwt.SigningMethodHS256, freshClaims(0, "user"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me/ratings", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, esperaba 401", rec.Code)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	chain := JWTAuth(testSecret)(AdminOnly()(next))

	// role user: 403
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.SigningMethodHS256, freshClaims(7, "user")))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || reached {
		t.Errorf("role user: status = %d (reached=%v), esperaba 403 sin pasar", rec.Code, reached)
	}

	// role admin: pasa
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.SigningMethodHS256, freshClaims(7, "admin")))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !reached {
		t.Errorf("role admin: status = %d (reached=%v), esperaba 200 y pasar", rec.Code, reached)
	}
}
