package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"vecinosml-pc5/internal/db"
	"vecinosml-pc5/internal/monitoring"
)

// @Summary Healthcheck con stats de sistema
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	mongoStatus := "ok"
	if err := db.Ping(r.Context()); err != nil {
		mongoStatus = "down"
	}

	status := "ok"
	if mongoStatus != "ok" {
		status = "degraded"
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now(),
		"mongodb":   mongoStatus,
		"system":    monitoring.Snapshot(),
	})
}
