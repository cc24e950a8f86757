package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"vecinosml-pc5/internal/cache"
	"vecinosml-pc5/internal/cf"
	"vecinosml-pc5/internal/models"
	"vecinosml-pc5/internal/repository"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	MaxK = 50 // por seguridad, no deja pedir 1000 ítems
	// filas de vecinos que mantenemos en memoria del proceso
	neighborCacheSize = 4096
)

// ErrUnknownUser: el userId no existe. Distinto de "usuario sin
// recomendaciones", que es una lista vacía.
var ErrUnknownUser = cf.ErrUnknownUser

type RecommendService struct {
	users   *repository.UserRepository
	ratings *repository.RatingRepository
	movies  *repository.MovieRepository
	recRepo *repository.RecommendationRepository
	sims    *repository.SimilarityRepository

	likeThreshold float64
	defaultK      int

	// LRU de filas de vecinos: solo cambian con un rebuild, así que una
	// fila cacheada vale hasta que el mantenimiento la purga.
	neighborCache *lru.Cache[int, []models.UserNeighbor]
}

func NewRecommendService(
	users *repository.UserRepository,
	ratings *repository.RatingRepository,
	movies *repository.MovieRepository,
	recRepo *repository.RecommendationRepository,
	sims *repository.SimilarityRepository,
	likeThreshold float64,
	defaultK int,
) *RecommendService {
	nc, err := lru.New[int, []models.UserNeighbor](neighborCacheSize)
	if err != nil {
		// solo falla con tamaño <= 0
		panic(err)
	}
	return &RecommendService{
		users:         users,
		ratings:       ratings,
		movies:        movies,
		recRepo:       recRepo,
		sims:          sims,
		likeThreshold: likeThreshold,
		defaultK:      defaultK,
		neighborCache: nc,
	}
}

// ====== Petición de recomendaciones ======

type RecRequest struct {
	UserID  int
	K       int
	Refresh bool
}

func cacheKey(req RecRequest) string {
	// cachea por usuario + k (refresh solo decide si usar el cache)
	return fmt.Sprintf("rec:user:%d:k:%d", req.UserID, req.K)
}

func (s *RecommendService) clampK(k int) int {
	if k <= 0 {
		return s.defaultK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// PurgeNeighborCache tira las filas en memoria. Lo llama el mantenimiento
// después de un rebuild de similitudes.
func (s *RecommendService) PurgeNeighborCache() {
	s.neighborCache.Purge()
}

func (s *RecommendService) neighborsFor(ctx context.Context, userID int) ([]models.UserNeighbor, error) {
	if row, ok := s.neighborCache.Get(userID); ok {
		return row, nil
	}
	row, found, err := s.sims.GetNeighbors(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if !found {
		// sin fila precalculada: usuario frío o filtrado por actividad;
		// se comporta como "sin vecinos utilizables", no como error
		return nil, nil
	}
	s.neighborCache.Add(userID, row)
	return row, nil
}

// Recommend camina los vecinos precalculados del usuario (distancia
// euclidiana ascendente) juntando películas que a ellos les gustaron y que
// el usuario no calificó, hasta llenar la cuota.
func (s *RecommendService) Recommend(ctx context.Context, req RecRequest) ([]models.RecItem, error) {
	req.K = s.clampK(req.K)

	// 1) Cache Redis (solo si refresh = false)
	var cached []models.RecItem
	if !req.Refresh {
		if ok, err := cache.GetJSON(ctx, cacheKey(req), &cached); err == nil && ok {
			return cached, nil
		}
	}

	// 2) El usuario tiene que existir: lookup fallido != lista vacía
	u, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownUser
	}

	// 3) Ratings propios: lo ya visto no se recomienda
	ratings, err := s.ratings.GetAllByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	rated := make(map[int]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.MovieID] = struct{}{}
	}

	// 4) Vecinos precalculados, del más cercano al más lejano
	neighbors, err := s.neighborsFor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// 5) Caminar vecinos juntando películas "que gustaron"
	movieIDs, err := s.walkNeighbors(ctx, neighbors, rated, req.K)
	if err != nil {
		return nil, err
	}

	items, err := s.resolveNames(ctx, movieIDs)
	if err != nil {
		return nil, err
	}

	// 6) Guardar historial en Mongo (no rompemos la respuesta si falla)
	hist := &models.Recommendation{
		UserID: req.UserID,
		Algo:   "user-knn",
		Metric: string(cf.MetricEuclidean),
		Params: map[string]any{
			"k":             req.K,
			"likeThreshold": s.likeThreshold,
			"refresh":       req.Refresh,
		},
		Items:     items,
		CreatedAt: time.Now(),
	}
	if err := s.recRepo.Insert(ctx, hist); err != nil {
		log.Printf("[recommend] error guardando historial en Mongo: %v", err)
	}

	// 7) Cachear en Redis (1 hora)
	if err := cache.SetJSON(ctx, cacheKey(req), items, 60*60); err != nil {
		log.Printf("[recommend] error cacheando en Redis: %v", err)
	}

	return items, nil
}

// walkNeighbors es el recorrido del Recommender sobre filas persistidas:
// por cada vecino, sus películas con rating >= umbral, menos las que el
// usuario ya vio y las ya juntadas, hasta la cuota. Quedarse corto no es
// un error: es el comportamiento documentado para usuarios fríos.
func (s *RecommendService) walkNeighbors(
	ctx context.Context,
	neighbors []models.UserNeighbor,
	rated map[int]struct{},
	k int,
) ([]int, error) {

	seen := make(map[int]struct{})
	out := make([]int, 0, k)

	for _, nb := range neighbors {
		nbRatings, err := s.ratings.GetAllByUser(ctx, nb.UserID)
		if err != nil {
			return nil, err
		}

		// determinista: ascendente por movieId dentro de cada vecino
		candidates := make([]int, 0, len(nbRatings))
		for _, r := range nbRatings {
			if r.Rating < s.likeThreshold {
				continue
			}
			if _, ya := rated[r.MovieID]; ya {
				continue
			}
			if _, ya := seen[r.MovieID]; ya {
				continue
			}
			candidates = append(candidates, r.MovieID)
		}
		sort.Ints(candidates)

		for _, mv := range candidates {
			seen[mv] = struct{}{}
			out = append(out, mv)
			if len(out) == k {
				return out, nil
			}
		}
	}
	return out, nil
}

// resolveNames traduce ids a títulos contra el catálogo. Un id sin doc se
// reporta y se omite, nunca se inventa un título.
func (s *RecommendService) resolveNames(ctx context.Context, movieIDs []int) ([]models.RecItem, error) {
	names, err := s.movies.Names(ctx, movieIDs)
	if err != nil {
		return nil, err
	}

	items := make([]models.RecItem, 0, len(movieIDs))
	for _, id := range movieIDs {
		title, ok := names[id]
		if !ok {
			log.Printf("[recommend] movieId %d sin entrada en catálogo, se omite", id)
			continue
		}
		items = append(items, models.RecItem{MovieID: id, Title: title})
	}
	return items, nil
}

// History lista las corridas guardadas de un usuario.
func (s *RecommendService) History(ctx context.Context, userID int, limit int64) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.recRepo.FindByUser(ctx, userID, limit)
}
