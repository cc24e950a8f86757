package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"net"
	"os"
	"time"

	"vecinosml-pc5/internal/cf"
	"vecinosml-pc5/internal/cluster"
	"vecinosml-pc5/internal/config"
	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/models"
	"vecinosml-pc5/internal/repository"
)

func main() {
	cfg := config.Load()
	db.InitMongo(cfg)

	addr := os.Getenv("ML_NODE_ADDR")
	if addr == "" {
		addr = ":9001"
	}

	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		nodeID = "?"
	}

	log.Printf("[ML NODE %s] escuchando en %s", nodeID, addr)

	ratingsRepo := repository.NewRatingRepository()
	simsRepo := repository.NewSimilarityRepository()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Println("accept error:", err)
			continue
		}
		go handleConn(nodeID, conn, ratingsRepo, simsRepo)
	}
}

func handleConn(
	nodeID string,
	conn net.Conn,
	ratings *repository.RatingRepository,
	sims *repository.SimilarityRepository,
) {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReader(conn))
	var task cluster.SimTask
	if err := dec.Decode(&task); err != nil {
		log.Printf("[ML NODE %s] decode task error: %v", nodeID, err)
		return
	}

	log.Printf("[ML NODE %s] tarea recibida: job=%s shard=%d/%d metric=%s lowerBound=%d k=%d",
		nodeID, task.JobID, task.ShardID, task.Shards, task.Metric, task.LowerBound, task.K)

	start := time.Now()

	res := computeShardRows(context.Background(), task, ratings, sims)
	res.ElapsedMs = time.Since(start).Milliseconds()

	if res.Error != "" {
		log.Printf("[ML NODE %s] compute error: %s", nodeID, res.Error)
	} else {
		log.Printf(
			"[ML NODE %s] completado: job=%s shard=%d/%d usuarios=%d pares=%d corrIndef=%d distIndef=%d tiempo=%dms",
			nodeID, task.JobID, task.ShardID, task.Shards,
			res.UsersProcessed, res.PairsComputed, res.UndefinedCorr, res.UndefinedDist, res.ElapsedMs,
		)
	}

	if err := json.NewEncoder(conn).Encode(&res); err != nil {
		log.Printf("[ML NODE %s] encode resp error: %v", nodeID, err)
	}
}

// computeShardRows reconstruye la matriz desde Mongo y calcula las filas
// de vecinos de los usuarios que le tocan a este shard. Las filas van
// directo a Mongo; al coordinador solo vuelven los conteos.
func computeShardRows(
	ctx context.Context,
	task cluster.SimTask,
	ratingsRepo *repository.RatingRepository,
	simsRepo *repository.SimilarityRepository,
) cluster.SimResult {

	res := cluster.SimResult{ShardID: task.ShardID}

	records, err := ratingsRepo.GetAllRecords(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	matrix, _ := cf.BuildMatrix(records)
	act := matrix.Activity().FilterActive(task.LowerBound)
	engine := cf.NewEngine(matrix, act)

	rows, stats := engine.ShardRows(cf.Metric(task.Metric), task.ShardID, task.Shards, task.K)

	for userID, neighbors := range rows {
		doc := models.UserSimilarityDoc{
			UserID:    userID,
			Metric:    task.Metric,
			K:         task.K,
			Neighbors: make([]models.UserNeighbor, 0, len(neighbors)),
		}
		for _, n := range neighbors {
			doc.Neighbors = append(doc.Neighbors, models.UserNeighbor{
				UserID: n.UserID,
				Dist:   n.Value,
			})
		}
		if err := simsRepo.UpsertRow(ctx, &doc); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.UsersProcessed = stats.UsersProcessed
	res.PairsComputed = stats.PairsComputed
	res.UndefinedCorr = stats.UndefinedCorr
	res.UndefinedDist = stats.UndefinedDist
	return res
}
