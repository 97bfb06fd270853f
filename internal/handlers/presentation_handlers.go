package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"slidedeck/internal/services"
)

// PresentationHandler handles presentation-wide requests
type PresentationHandler struct {
	store  *services.SlideStore
	logger *zap.Logger
}

// NewPresentationHandler creates a new presentation handler
func NewPresentationHandler(store *services.SlideStore, logger *zap.Logger) *PresentationHandler {
	return &PresentationHandler{
		store:  store,
		logger: logger,
	}
}

// EditModeRequest toggles the editor
type EditModeRequest struct {
	EditMode bool `json:"editMode"`
}

// ResetPresentation starts a new presentation from the default templates
// POST /api/presentation/reset
func (h *PresentationHandler) ResetPresentation(w http.ResponseWriter, r *http.Request) {
	if err := h.store.InitializeNewPresentationState(); err != nil {
		h.logger.Error("failed to reset presentation", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logger.Info("presentation reset")
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetEditMode toggles edit mode
// PUT /api/edit-mode
func (h *PresentationHandler) SetEditMode(w http.ResponseWriter, r *http.Request) {
	var req EditModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	h.store.SetEditMode(req.EditMode)
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}

// Health reports liveness
// GET /healthz
func (h *PresentationHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}
