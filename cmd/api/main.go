package main

import (
	"log"
	"net/http"

	_ "vecinosml-pc5/docs" // swagger docs

	"vecinosml-pc5/internal/cache"
	"vecinosml-pc5/internal/config"
	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/handler"
	"vecinosml-pc5/internal/repository"
	"vecinosml-pc5/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title VecinosML Movie Recommender API
// @version 1.0
// @description API para PC5 (user-based, Mongo, Redis)
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	// Mongo y Redis
	db.InitMongo(cfg)
	cache.InitRedis(cfg)

	// repos
	userRepo := repository.NewUserRepository()
	movieRepo := repository.NewMovieRepository()
	ratingRepo := repository.NewRatingRepository()
	recRepo := repository.NewRecommendationRepository()
	simRepo := repository.NewSimilarityRepository()

	// services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	ratingSvc := service.NewRatingService(ratingRepo, movieRepo)
	// recomendador online: lee las filas de vecinos precalculadas
	recSvc := service.NewRecommendService(
		userRepo, ratingRepo, movieRepo, recRepo, simRepo,
		cfg.LikeThreshold, cfg.DefaultRecs,
	)
	// mantenimiento admin: rebuild de similitudes (nodos ML) y batch de recomendaciones
	maintSvc := service.NewMaintenanceService(
		cfg, cfg.MLNodeAddrs,
		ratingRepo, movieRepo, simRepo, recRepo, recSvc,
	)

	// handlers
	authH := handler.NewAuthHandler(authSvc)
	movieH := handler.NewMovieHandler(movieRepo)
	ratingH := handler.NewRatingHandler(ratingSvc)
	recH := handler.NewRecommendHandler(recSvc)
	maintH := handler.NewMaintenanceHandler(maintSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// =============
	// Rutas públicas
	// =============
	r.Get("/health", handler.Health)

	r.Post("/auth/register", authH.Register)
	r.Post("/auth/login", authH.Login)

	// Películas (públicas)
	r.Get("/movies/{id}", movieH.GetMovie)
	r.Get("/movies/search", movieH.Search)
	r.Get("/movies/top", movieH.Top)

	// ===========================
	// Rutas protegidas con JWT
	// ===========================
	authMw := handler.JWTAuth(cfg.JWTSecret)

	r.Group(func(r chi.Router) {
		r.Use(authMw)

		// ---- Endpoints /me (USER normal) ----
		r.Route("/me", func(r chi.Router) {
			r.Get("/ratings", ratingH.GetMyRatings)
			r.Post("/ratings", ratingH.PostMyRating)
			r.Get("/recommendations", recH.GetMyRecommendations)
		})

		// ---- Endpoints solo ADMIN ----
		r.Group(func(r chi.Router) {
			r.Use(handler.AdminOnly())

			// edición de usuario
			r.Put("/users/{id}/update", authH.UpdateUser)
			r.Get("/users", authH.ListUsers)

			// gestión de películas
			r.Post("/admin/movies", movieH.CreateMovie)

			// ratings y recomendaciones de cualquier usuario
			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/", authH.GetUserByID)

				r.Get("/ratings", ratingH.GetRatings)
				r.Post("/ratings", ratingH.PostRating)

				// HTTP normal
				r.Get("/recommendations", recH.GetRecommendations)
				r.Get("/recommendations/history", recH.GetHistory)

				// WebSocket
				r.Get("/ws/recommendations", recH.GetRecommendationsWS)
			})

			// --- mantenimiento de similitudes / batch ---
			handler.MountMaintenanceRoutes(r, maintH)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log.Printf("HTTP escuchando en :%s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}
