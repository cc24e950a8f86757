package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"vecinosml-pc5/internal/cf"
	"vecinosml-pc5/internal/cluster"
	"vecinosml-pc5/internal/config"
	"vecinosml-pc5/internal/models"
	"vecinosml-pc5/internal/repository"

	"github.com/google/uuid"
)

// MaintenanceService orquesta el recálculo de similitudes (repartido entre
// nodos ML) y el batch de recomendaciones de todos los usuarios activos.
type MaintenanceService struct {
	cfg     *config.Config
	mlNodes []string

	ratings *repository.RatingRepository
	movies  *repository.MovieRepository
	sims    *repository.SimilarityRepository
	recRepo *repository.RecommendationRepository
	recSvc  *RecommendService
}

func NewMaintenanceService(
	cfg *config.Config,
	mlNodes []string,
	ratings *repository.RatingRepository,
	movies *repository.MovieRepository,
	sims *repository.SimilarityRepository,
	recRepo *repository.RecommendationRepository,
	recSvc *RecommendService,
) *MaintenanceService {
	return &MaintenanceService{
		cfg:     cfg,
		mlNodes: mlNodes,
		ratings: ratings,
		movies:  movies,
		sims:    sims,
		recRepo: recRepo,
		recSvc:  recSvc,
	}
}

// ---------------------- SUMMARY ----------------------

// GetSimilaritySummary devuelve el resumen global: cuántos usuarios pasan
// el filtro de actividad y cuántos tienen fila de vecinos precalculada.
func (s *MaintenanceService) GetSimilaritySummary(ctx context.Context, lowerBound int) (*models.SimilaritySummary, error) {
	if lowerBound <= 0 {
		lowerBound = s.cfg.SimLowerBound
	}

	totalRatings, err := s.ratings.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.ratings.CountDistinctUsers(ctx)
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.ratings.CountActiveUsers(ctx, lowerBound)
	if err != nil {
		return nil, err
	}
	usersWithSims, err := s.sims.CountRows(ctx, "")
	if err != nil {
		return nil, err
	}

	usersWithoutSims := activeUsers - usersWithSims
	if usersWithoutSims < 0 {
		usersWithoutSims = 0
	}

	return &models.SimilaritySummary{
		TotalRatings:     totalRatings,
		TotalUsers:       totalUsers,
		ActiveUsers:      activeUsers,
		UsersWithSims:    usersWithSims,
		UsersWithoutSims: usersWithoutSims,
		LowerBound:       lowerBound,
	}, nil
}

// ---------------------- REBUILD SIMILARITIES ----------------------

// RebuildSimilarities reparte el espacio de usuarios entre los nodos ML
// (un shard por nodo) y junta los conteos. Los nodos escriben las filas
// directo en Mongo; acá solo viaja la tarea y el diagnóstico.
func (s *MaintenanceService) RebuildSimilarities(
	ctx context.Context,
	req *models.RebuildSimilaritiesRequest,
) (*models.RebuildSimilaritiesResult, error) {

	if req.Metric == "" {
		req.Metric = string(cf.MetricEuclidean)
	}
	if req.Metric != string(cf.MetricEuclidean) && req.Metric != string(cf.MetricPearson) {
		return nil, fmt.Errorf("métrica desconocida: %q", req.Metric)
	}
	if req.LowerBound <= 0 {
		req.LowerBound = s.cfg.SimLowerBound
	}
	if req.K <= 0 {
		req.K = s.cfg.SimK
	}
	if len(s.mlNodes) == 0 {
		return nil, errors.New("no hay nodos ML configurados (ML_NODE_ADDRS vacío)")
	}

	jobID := uuid.NewString()
	shards := len(s.mlNodes)
	start := time.Now()

	// las filas viejas no sirven: el rebuild pisa todo
	if err := s.sims.DeleteAll(ctx); err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	resCh := make(chan *cluster.SimResult, shards)
	errCh := make(chan error, shards)

	var wg sync.WaitGroup
	for i, addr := range s.mlNodes {
		wg.Add(1)
		go func(addr string, shardID int) {
			defer wg.Done()
			res, err := cluster.SendSimTask(ctxTimeout, addr, &cluster.SimTask{
				JobID:      jobID,
				ShardID:    shardID,
				Shards:     shards,
				Metric:     req.Metric,
				LowerBound: req.LowerBound,
				K:          req.K,
			})
			if err != nil {
				errCh <- err
				return
			}
			resCh <- res
		}(addr, i)
	}

	wg.Wait()
	close(resCh)
	close(errCh)

	if len(errCh) > 0 {
		// con un shard caído el resultado queda incompleto: se aborta
		return nil, <-errCh
	}

	out := &models.RebuildSimilaritiesResult{
		JobID:  jobID,
		Metric: req.Metric,
		Shards: shards,
	}
	for res := range resCh {
		out.UsersProcessed += res.UsersProcessed
		out.PairsComputed += res.PairsComputed
		out.UndefinedCorr += res.UndefinedCorr
		out.UndefinedDist += res.UndefinedDist
	}
	out.ElapsedMs = time.Since(start).Milliseconds()

	// las filas en memoria del coordinador quedaron viejas
	s.recSvc.PurgeNeighborCache()

	log.Printf("[maintenance] job %s: %d usuarios, %d pares, %d corr indefinidas, %d dist indefinidas en %dms",
		jobID, out.UsersProcessed, out.PairsComputed, out.UndefinedCorr, out.UndefinedDist, out.ElapsedMs)
	return out, nil
}

// ---------------------- BATCH RECOMMENDATIONS ----------------------

// BatchRecommendations corre el pipeline completo en el coordinador:
// matriz desde Mongo, filtro de actividad, filas precalculadas, y
// recomendaciones para cada usuario activo en paralelo. Guarda cada lista
// como historial y devuelve los conteos de diagnóstico.
func (s *MaintenanceService) BatchRecommendations(
	ctx context.Context,
	req *models.BatchRecommendationsRequest,
) (*models.BatchRecommendationsResult, error) {

	if req.NumRecs <= 0 {
		req.NumRecs = s.cfg.DefaultRecs
	}
	if req.Workers <= 0 {
		req.Workers = runtime.NumCPU()
	}

	jobID := uuid.NewString()
	start := time.Now()

	// 1) Matriz dispersa desde los ratings crudos
	records, err := s.ratings.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	matrix, ingest := cf.BuildMatrix(records)
	if ingest.Malformed > 0 || ingest.Duplicates > 0 {
		log.Printf("[maintenance] job %s: ingest con %d malformados, %d duplicados",
			jobID, ingest.Malformed, ingest.Duplicates)
	}

	act := matrix.Activity().FilterActive(s.cfg.SimLowerBound)

	// 2) Filas de vecinos que dejaron los nodos ML
	simDocs, err := s.sims.GetAllRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(simDocs) == 0 {
		return nil, errors.New("no hay similitudes precalculadas: correr /admin/similarity/rebuild primero")
	}
	rows := make(map[int][]cf.Neighbor, len(simDocs))
	for _, doc := range simDocs {
		row := make([]cf.Neighbor, 0, len(doc.Neighbors))
		for _, nb := range doc.Neighbors {
			row = append(row, cf.Neighbor{UserID: nb.UserID, Value: nb.Dist})
		}
		rows[doc.UserID] = row
	}

	// 3) Recomendaciones para todos los usuarios activos
	rec := cf.NewRecommenderFromRows(matrix, act, rows)
	rec.LikeThreshold = s.cfg.LikeThreshold

	all, err := rec.AllRecommendations(req.NumRecs, req.Workers)
	if err != nil {
		return nil, err
	}
	stats := cf.Diagnose(all, req.NumRecs)

	// 4) Persistir cada lista como historial, con paralelismo acotado
	sem := make(chan struct{}, req.Workers)
	var wg sync.WaitGroup
	insertErrs := make(chan error, len(all))

	for userID, movieIDs := range all {
		sem <- struct{}{}
		wg.Add(1)

		go func(userID int, movieIDs []int) {
			defer wg.Done()
			defer func() { <-sem }()

			items, err := s.resolveItems(ctx, movieIDs)
			if err != nil {
				insertErrs <- err
				return
			}
			hist := &models.Recommendation{
				UserID: userID,
				Algo:   "user-knn",
				Metric: string(cf.MetricEuclidean),
				Params: map[string]any{
					"k":     req.NumRecs,
					"batch": true,
					"jobId": jobID,
				},
				Items:     items,
				CreatedAt: time.Now(),
			}
			if err := s.recRepo.Insert(ctx, hist); err != nil {
				insertErrs <- err
			}
		}(userID, movieIDs)
	}

	wg.Wait()
	close(insertErrs)

	if len(insertErrs) > 0 {
		// por simplicidad devolvemos el primer error
		return nil, <-insertErrs
	}

	return &models.BatchRecommendationsResult{
		JobID:     jobID,
		NumRecs:   req.NumRecs,
		Ingest:    ingest,
		Stats:     stats,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}

func (s *MaintenanceService) resolveItems(ctx context.Context, movieIDs []int) ([]models.RecItem, error) {
	names, err := s.movies.Names(ctx, movieIDs)
	if err != nil {
		return nil, err
	}
	items := make([]models.RecItem, 0, len(movieIDs))
	for _, id := range movieIDs {
		title, ok := names[id]
		if !ok {
			log.Printf("[maintenance] movieId %d sin entrada en catálogo, se omite", id)
			continue
		}
		items = append(items, models.RecItem{MovieID: id, Title: title})
	}
	return items, nil
}
