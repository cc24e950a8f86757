package models

import "vecinosml-pc5/internal/cf"

// ----- SUMMARY -----

// SimilaritySummary es el resumen global de similitudes precalculadas.
type SimilaritySummary struct {
	TotalRatings     int64 `json:"totalRatings"`
	TotalUsers       int64 `json:"totalUsers"`
	ActiveUsers      int64 `json:"activeUsers"`
	UsersWithSims    int64 `json:"usersWithSims"`
	UsersWithoutSims int64 `json:"usersWithoutSims"`
	LowerBound       int   `json:"lowerBound"`
}

// ----- REBUILD SIMILARITIES -----

// RebuildSimilaritiesRequest body de /admin/similarity/rebuild.
type RebuildSimilaritiesRequest struct {
	Metric     string `json:"metric"`     // pearson|euclidean (default euclidean)
	LowerBound int    `json:"lowerBound"` // actividad mínima, exclusivo
	K          int    `json:"k"`          // vecinos a persistir por usuario
}

// RebuildSimilaritiesResult agrega lo que devolvió cada shard.
type RebuildSimilaritiesResult struct {
	JobID          string `json:"jobId"`
	Metric         string `json:"metric"`
	Shards         int    `json:"shards"`
	UsersProcessed int    `json:"usersProcessed"`
	PairsComputed  int    `json:"pairsComputed"`
	UndefinedCorr  int    `json:"undefinedCorr"`
	UndefinedDist  int    `json:"undefinedDist"`
	ElapsedMs      int64  `json:"elapsedMs"`
}

// ----- BATCH RECOMMENDATIONS -----

// BatchRecommendationsRequest body de /admin/recommendations/rebuild.
type BatchRecommendationsRequest struct {
	NumRecs int `json:"numRecs"`
	Workers int `json:"workers"`
}

// BatchRecommendationsResult resultado del batch, con los conteos de
// diagnóstico (usuarios sin recomendaciones, bajo cuota) y del ingest.
type BatchRecommendationsResult struct {
	JobID     string          `json:"jobId"`
	NumRecs   int             `json:"numRecs"`
	Ingest    cf.IngestReport `json:"ingest"`
	Stats     cf.RecStats     `json:"stats"`
	ElapsedMs int64           `json:"elapsedMs"`
}
