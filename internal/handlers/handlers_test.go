package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slidedeck/internal/models"
	"slidedeck/internal/services"
)

type testSnapshot struct {
	Slides []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"slides"`
	CurrentSlideID string `json:"currentSlideId"`
	EditMode       bool   `json:"editMode"`
}

func (s testSnapshot) ids() []string {
	ids := make([]string, 0, len(s.Slides))
	for _, slide := range s.Slides {
		ids = append(ids, slide.ID)
	}
	return ids
}

func newTestRouter(t *testing.T, slides ...models.Slide) (*mux.Router, *services.SlideStore, *services.MemorySlot) {
	t.Helper()
	logger := zap.NewNop()
	slot := services.NewMemorySlot()
	if len(slides) > 0 {
		data, err := models.EncodeSlides(slides)
		require.NoError(t, err)
		require.NoError(t, slot.Set(services.DefaultSlidesKey, data))
	}
	n := 0
	store, err := services.NewSlideStore(slot,
		services.WithLogger(logger),
		services.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("tmp-%d", n)
		}))
	require.NoError(t, err)

	hub := services.NewWebSocketService(logger)
	router := SetupRoutes(logger,
		NewSlideHandler(store, logger),
		NewPresentationHandler(store, logger),
		NewRecommendationHandler(store, logger),
		NewWebSocketHandler(hub, logger))
	return router, store, slot
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) testSnapshot {
	t.Helper()
	var snap testSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func drawingSlide(id string) *models.DrawingSlide {
	return &models.DrawingSlide{ID: id, Elements: []models.Element{}, Files: models.Files{}}
}

func TestListSlidesSeedsDefaults(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/slides", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, models.SlideIDs(models.DefaultSlides()), snap.ids())
	assert.Equal(t, "default-title", snap.CurrentSlideID)
}

func TestAddAndGetSlide(t *testing.T) {
	router, _, _ := newTestRouter(t, drawingSlide("a"))

	rec := do(t, router, http.MethodPost, "/api/slides", `{"type":"quiz"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"tmp-1"`)
	assert.Contains(t, rec.Body.String(), `"type":"quiz"`)

	rec = do(t, router, http.MethodGet, "/api/slides/tmp-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"questionId":"tmp-2"`)

	rec = do(t, router, http.MethodPost, "/api/slides", `{"type":"poll"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/slides/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSlideEndpoint(t *testing.T) {
	router, store, _ := newTestRouter(t, drawingSlide("a"), drawingSlide("b"))

	rec := do(t, router, http.MethodDelete, "/api/slides/b", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/slides/a", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []string{"a"}, models.SlideIDs(store.Slides()))

	rec = do(t, router, http.MethodDelete, "/api/slides/zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateDrawingEndpoint(t *testing.T) {
	router, store, slot := newTestRouter(t, drawingSlide("a"))
	body := `{
		"elements": [{"id":"e1","type":"rectangle","x":1},{"id":"e2","isDeleted":true}],
		"appState": {"theme":"dark","scrollX":0,"activeTool":{"type":"hand"},"collaborators":{}},
		"files": null
	}`

	rec := do(t, router, http.MethodPut, "/api/slides/a/drawing", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"changed":true}`, rec.Body.String())
	writes := slot.Writes()

	rec = do(t, router, http.MethodPut, "/api/slides/a/drawing", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"changed":false}`, rec.Body.String())
	assert.Equal(t, writes, slot.Writes())

	slide, ok := store.Slide("a")
	require.True(t, ok)
	require.Len(t, slide.(*models.DrawingSlide).Elements, 1)

	rec = do(t, router, http.MethodPut, "/api/slides/a/drawing", `{bad`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateQuestionEndpoint(t *testing.T) {
	quiz := &models.QuizSlide{QuestionContent: models.QuestionContent{ID: "q", QuestionID: "qq"}}
	router, store, _ := newTestRouter(t, drawingSlide("a"), quiz)

	rec := do(t, router, http.MethodPut, "/api/slides/q/question", `{"elements":{"prompt":"Why?","questionType":"LONG_ANSWER"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"changed":true}`, rec.Body.String())

	slide, _ := store.Slide("q")
	assert.Equal(t, "Why?", slide.(*models.QuizSlide).Form.Prompt)

	rec = do(t, router, http.MethodPut, "/api/slides/a/question", `{"elements":{"prompt":"Why?"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"changed":false}`, rec.Body.String())
}

func TestMoveAndSaveEndpoints(t *testing.T) {
	router, _, slot := newTestRouter(t, drawingSlide("a"), drawingSlide("b"), drawingSlide("c"))
	writes := slot.Writes()

	rec := do(t, router, http.MethodPost, "/api/slides/move", `{"from":2,"to":0}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, writes, slot.Writes())

	rec = do(t, router, http.MethodPost, "/api/slides/move", `{"from":5,"to":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/slides/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, writes+1, slot.Writes())

	raw, _, err := slot.Get(services.DefaultSlidesKey)
	require.NoError(t, err)
	slides, err := models.DecodeSlides(raw, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, models.SlideIDs(slides))
}

func TestReplaceSlidesEndpoint(t *testing.T) {
	router, _, slot := newTestRouter(t, drawingSlide("a"))
	writes := slot.Writes()

	rec := do(t, router, http.MethodPut, "/api/slides", `{"slides":[{"id":"x","type":"drawing"},{"id":"y","type":"feedback","elements":{"prompt":"?"}}],"skipSave":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"x", "y"}, decodeSnapshot(t, rec).ids())
	assert.Equal(t, writes, slot.Writes())

	rec = do(t, router, http.MethodPut, "/api/slides", `{"slides":{"id":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSlideIDsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, drawingSlide("tmp1"), drawingSlide("tmp2"))

	rec := do(t, router, http.MethodPost, "/api/slides/ids", `{"updates":[{"tempId":"tmp1","newId":"srv1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, []string{"srv1", "tmp2"}, snap.ids())
	assert.Equal(t, "srv1", snap.CurrentSlideID)
}

func TestCurrentAndEditModeEndpoints(t *testing.T) {
	router, store, _ := newTestRouter(t, drawingSlide("a"), drawingSlide("b"))

	rec := do(t, router, http.MethodPut, "/api/slides/current", `{"id":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", store.CurrentSlideID())

	rec = do(t, router, http.MethodPut, "/api/slides/current", `{"id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/edit-mode", `{"editMode":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.EditMode())
}

func TestRecommendationEndpoints(t *testing.T) {
	router, store, _ := newTestRouter(t, drawingSlide("a"))

	rec := do(t, router, http.MethodPost, "/api/recommendations", `{"timestamp":"t1","slides":[{"id":"s","type":"drawing"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.Recommendations(), 1)

	rec = do(t, router, http.MethodGet, "/api/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"timestamp":"t1"`)

	rec = do(t, router, http.MethodDelete, "/api/recommendations/t1/s", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Recommendations())

	rec = do(t, router, http.MethodDelete, "/api/recommendations/t1/s", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/recommendations", `{"slides":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.AddRecommendationBatch("t2", []models.Slide{drawingSlide("u")})
	rec = do(t, router, http.MethodDelete, "/api/recommendations", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Recommendations())
}

func TestResetEndpoint(t *testing.T) {
	router, store, _ := newTestRouter(t, drawingSlide("a"))

	rec := do(t, router, http.MethodPost, "/api/presentation/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SlideIDs(models.DefaultSlides()), models.SlideIDs(store.Slides()))
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
