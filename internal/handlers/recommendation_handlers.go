package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"slidedeck/internal/models"
	"slidedeck/internal/services"
)

// RecommendationHandler handles HTTP requests for suggested slides
type RecommendationHandler struct {
	store  *services.SlideStore
	logger *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(store *services.SlideStore, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		store:  store,
		logger: logger,
	}
}

// AddBatchRequest represents a batch of suggested slides
type AddBatchRequest struct {
	Timestamp string          `json:"timestamp"`
	Slides    json.RawMessage `json:"slides"`
}

// ListRecommendations returns all pending batches
// GET /api/recommendations
func (h *RecommendationHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Recommendations())
}

// AddBatch records a batch of suggested slides
// POST /api/recommendations
func (h *RecommendationHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	var req AddBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Timestamp == "" {
		http.Error(w, "timestamp is required", http.StatusBadRequest)
		return
	}
	if len(req.Slides) == 0 {
		http.Error(w, "slides is required", http.StatusBadRequest)
		return
	}

	slides, err := models.DecodeSlides(req.Slides, h.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(slides) == 0 {
		http.Error(w, "no valid slides in batch", http.StatusBadRequest)
		return
	}

	h.store.AddRecommendationBatch(req.Timestamp, slides)
	writeJSON(w, http.StatusCreated, h.store.Recommendations())
}

// RemoveRecommendation drops one suggested slide from a batch
// DELETE /api/recommendations/{timestamp}/{slideId}
func (h *RecommendationHandler) RemoveRecommendation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !h.store.RemoveRecommendation(vars["timestamp"], vars["slideId"]) {
		http.Error(w, "Recommendation not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRecommendations drops every batch
// DELETE /api/recommendations
func (h *RecommendationHandler) ClearRecommendations(w http.ResponseWriter, r *http.Request) {
	h.store.ClearRecommendations()
	w.WriteHeader(http.StatusNoContent)
}
