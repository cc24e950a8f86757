package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vecinosml-pc5/internal/models"
	"vecinosml-pc5/internal/service"

	"github.com/go-chi/chi/v5"
)

type MaintenanceHandler struct {
	svc *service.MaintenanceService
}

func NewMaintenanceHandler(s *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: s}
}

// MountMaintenanceRoutes cuelga las rutas de mantenimiento bajo /admin.
func MountMaintenanceRoutes(r chi.Router, h *MaintenanceHandler) {
	r.Get("/admin/similarity/summary", h.GetSummary)
	r.Post("/admin/similarity/rebuild", h.RebuildSimilarities)
	r.Post("/admin/recommendations/rebuild", h.BatchRecommendations)
}

// @Summary Resumen de similitudes precalculadas (ADMIN)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param lowerBound query int false "actividad mínima (exclusiva)"
// @Success 200 {object} models.SimilaritySummary
// @Router /admin/similarity/summary [get]
func (h *MaintenanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	lowerBound, _ := strconv.Atoi(r.URL.Query().Get("lowerBound"))

	summary, err := h.svc.GetSimilaritySummary(r.Context(), lowerBound)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(summary)
}

// @Summary Recalcular similitudes usuario-usuario (ADMIN)
// @Description Reparte el cálculo O(n²) entre los nodos ML. Pisa las filas existentes.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.RebuildSimilaritiesRequest true "parámetros"
// @Success 200 {object} models.RebuildSimilaritiesResult
// @Router /admin/similarity/rebuild [post]
func (h *MaintenanceHandler) RebuildSimilarities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.RebuildSimilaritiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.RebuildSimilarities(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// @Summary Recomendaciones batch para todos los usuarios activos (ADMIN)
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.BatchRecommendationsRequest true "parámetros"
// @Success 200 {object} models.BatchRecommendationsResult
// @Router /admin/recommendations/rebuild [post]
func (h *MaintenanceHandler) BatchRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.BatchRecommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.BatchRecommendations(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}
