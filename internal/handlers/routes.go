package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetupRoutes wires every handler onto a router
func SetupRoutes(
	logger *zap.Logger,
	slideHandler *SlideHandler,
	presentationHandler *PresentationHandler,
	recommendationHandler *RecommendationHandler,
	wsHandler *WebSocketHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	router.HandleFunc("/healthz", presentationHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/ws", wsHandler.ServeWS).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/slides", slideHandler.ListSlides).Methods(http.MethodGet)
	api.HandleFunc("/slides", slideHandler.ReplaceSlides).Methods(http.MethodPut)
	api.HandleFunc("/slides", slideHandler.AddSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/save", slideHandler.SaveSlides).Methods(http.MethodPost)
	api.HandleFunc("/slides/move", slideHandler.MoveSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/ids", slideHandler.UpdateSlideIDs).Methods(http.MethodPost)
	api.HandleFunc("/slides/current", slideHandler.SetCurrent).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}", slideHandler.GetSlide).Methods(http.MethodGet)
	api.HandleFunc("/slides/{id}", slideHandler.DeleteSlide).Methods(http.MethodDelete)
	api.HandleFunc("/slides/{id}/drawing", slideHandler.UpdateDrawing).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}/question", slideHandler.UpdateQuestion).Methods(http.MethodPut)

	api.HandleFunc("/edit-mode", presentationHandler.SetEditMode).Methods(http.MethodPut)
	api.HandleFunc("/presentation/reset", presentationHandler.ResetPresentation).Methods(http.MethodPost)

	api.HandleFunc("/recommendations", recommendationHandler.ListRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", recommendationHandler.AddBatch).Methods(http.MethodPost)
	api.HandleFunc("/recommendations", recommendationHandler.ClearRecommendations).Methods(http.MethodDelete)
	api.HandleFunc("/recommendations/{timestamp}/{slideId}", recommendationHandler.RemoveRecommendation).Methods(http.MethodDelete)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// the websocket upgrade needs the raw writer for Hijack
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
