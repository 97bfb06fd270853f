package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"slidedeck/internal/models"
	"slidedeck/internal/services"
)

// SlideHandler handles HTTP requests for the slide sequence
type SlideHandler struct {
	store  *services.SlideStore
	logger *zap.Logger
}

// NewSlideHandler creates a new slide handler
func NewSlideHandler(store *services.SlideStore, logger *zap.Logger) *SlideHandler {
	return &SlideHandler{
		store:  store,
		logger: logger,
	}
}

// ReplaceSlidesRequest replaces the whole sequence
type ReplaceSlidesRequest struct {
	Slides   json.RawMessage `json:"slides"`
	SkipSave bool            `json:"skipSave,omitempty"`
}

// AddSlideRequest names the kind of slide to append
type AddSlideRequest struct {
	Type models.SlideKind `json:"type"`
}

// UpdateDrawingRequest is what the canvas editor emits after an edit
type UpdateDrawingRequest struct {
	Elements []models.Element `json:"elements"`
	AppState map[string]any   `json:"appState"`
	Files    models.Files     `json:"files"`
}

// UpdateQuestionRequest carries the new form of a quiz or feedback slide
type UpdateQuestionRequest struct {
	Elements models.QuestionForm `json:"elements"`
}

// MoveSlideRequest moves one slide during a drag gesture
type MoveSlideRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// UpdateSlideIDsRequest is the save response of the backend, forwarded
type UpdateSlideIDsRequest struct {
	Updates []models.SlideIDUpdate `json:"updates"`
}

// SetCurrentRequest selects a slide
type SetCurrentRequest struct {
	ID string `json:"id"`
}

// ListSlides returns the current store projection
// GET /api/slides
func (h *SlideHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// ReplaceSlides replaces the whole sequence
// PUT /api/slides
func (h *SlideHandler) ReplaceSlides(w http.ResponseWriter, r *http.Request) {
	var req ReplaceSlidesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
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

	if err := h.store.SetSlides(slides, req.SkipSave); err != nil {
		h.logger.Error("failed to replace slides", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// AddSlide appends an empty slide of the requested kind
// POST /api/slides
func (h *SlideHandler) AddSlide(w http.ResponseWriter, r *http.Request) {
	var req AddSlideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if !req.Type.Valid() {
		http.Error(w, "type must be one of drawing, quiz, feedback", http.StatusBadRequest)
		return
	}

	slide, err := h.store.AddSlide(req.Type)
	if err != nil {
		h.logger.Error("failed to add slide", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, slide)
}

// GetSlide returns one slide
// GET /api/slides/{id}
func (h *SlideHandler) GetSlide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slide, ok := h.store.Slide(id)
	if !ok {
		http.Error(w, "Slide not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// DeleteSlide removes a slide unless it is the last one
// DELETE /api/slides/{id}
func (h *SlideHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.store.Slide(id); !ok {
		http.Error(w, "Slide not found", http.StatusNotFound)
		return
	}

	deleted, err := h.store.DeleteSlide(id)
	if err != nil {
		h.logger.Error("failed to delete slide", zap.String("slide_id", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusConflict, StatusResponse{
			Success: false,
			Message: "Cannot delete the last slide",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDrawing applies a canvas editor snapshot to a drawing slide
// PUT /api/slides/{id}/drawing
func (h *SlideHandler) UpdateDrawing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req UpdateDrawingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	changed, err := h.store.UpdateSlide(id, req.Elements, req.AppState, req.Files)
	if err != nil {
		h.logger.Error("failed to update slide", zap.String("slide_id", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Changed: &changed})
}

// UpdateQuestion replaces the form of a quiz or feedback slide
// PUT /api/slides/{id}/question
func (h *SlideHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req UpdateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	changed, err := h.store.UpdateQuizFeedbackSlide(id, req.Elements)
	if err != nil {
		h.logger.Error("failed to update question", zap.String("slide_id", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Changed: &changed})
}

// MoveSlide reorders in memory only; clients call SaveSlides when the drag ends
// POST /api/slides/move
func (h *SlideHandler) MoveSlide(w http.ResponseWriter, r *http.Request) {
	var req MoveSlideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if !h.store.MoveSlide(req.From, req.To) {
		http.Error(w, "from and to must be valid slide positions", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveSlides persists the sequence, typically at the end of a drag
// POST /api/slides/save
func (h *SlideHandler) SaveSlides(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SaveSlides(); err != nil {
		h.logger.Error("failed to save slides", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}

// UpdateSlideIDs swaps temporary ids for server-assigned ones
// POST /api/slides/ids
func (h *SlideHandler) UpdateSlideIDs(w http.ResponseWriter, r *http.Request) {
	var req UpdateSlideIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateSlideIDs(req.Updates); err != nil {
		h.logger.Error("failed to update slide ids", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetCurrent selects the slide shown in the editor
// PUT /api/slides/current
func (h *SlideHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req SetCurrentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if !h.store.SetCurrentSlideID(req.ID) {
		http.Error(w, "Slide not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true})
}
