package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

type wireSlide struct {
	ID         string          `json:"id"`
	Type       SlideKind       `json:"type"`
	QuestionID string          `json:"questionId"`
	Elements   json.RawMessage `json:"elements"`
	AppState   json.RawMessage `json:"appState"`
	Files      json.RawMessage `json:"files"`
}

// EncodeSlides serializes slides into the snapshot format. An empty or nil
// sequence encodes as [].
func EncodeSlides(slides []Slide) ([]byte, error) {
	if slides == nil {
		slides = []Slide{}
	}
	data, err := json.Marshal(slides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slides: %w", err)
	}
	return data, nil
}

// DecodeSlides rebuilds slides from the snapshot format. Only a top-level
// value that is not a JSON array is an error. Entries without an id or
// with an unknown type are skipped; inside a drawing slide only the
// malformed element, file map or view-state field is dropped. Every
// recovery is logged as a warning.
func DecodeSlides(data []byte, logger *zap.Logger) ([]Slide, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse slides: %w", err)
	}
	slides := make([]Slide, 0, len(raws))
	for i, raw := range raws {
		slide, err := DecodeSlide(raw, logger)
		if err != nil {
			logger.Warn("skipping malformed slide", zap.Int("index", i), zap.Error(err))
			continue
		}
		slides = append(slides, slide)
	}
	return slides, nil
}

// DecodeSlide rebuilds one slide. Entries without a type are drawing
// slides.
func DecodeSlide(data []byte, logger *zap.Logger) (Slide, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var w wireSlide
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, fmt.Errorf("slide id is required")
	}
	if w.Type == "" {
		w.Type = SlideKindDrawing
	}

	switch w.Type {
	case SlideKindDrawing:
		return decodeDrawing(w, logger), nil
	case SlideKindQuiz:
		return &QuizSlide{decodeQuestion(w, logger)}, nil
	case SlideKindFeedback:
		return &FeedbackSlide{decodeQuestion(w, logger)}, nil
	default:
		return nil, fmt.Errorf("unknown slide type %q", w.Type)
	}
}

func decodeDrawing(w wireSlide, logger *zap.Logger) *DrawingSlide {
	logger = logger.With(zap.String("slide_id", w.ID))
	return &DrawingSlide{
		ID:       w.ID,
		Elements: decodeElements(w.Elements, logger),
		AppState: decodeAppState(w.AppState, logger),
		Files:    decodeFiles(w.Files, logger),
	}
}

func decodeElements(data json.RawMessage, logger *zap.Logger) []Element {
	elements := []Element{}
	if isNull(data) {
		return elements
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		logger.Warn("malformed elements, using empty list", zap.Error(err))
		return elements
	}
	for i, raw := range raws {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil || el == nil {
			logger.Warn("skipping malformed element", zap.Int("index", i), zap.Error(err))
			continue
		}
		elements = append(elements, el)
	}
	return LiveElements(elements)
}

func decodeFiles(data json.RawMessage, logger *zap.Logger) Files {
	if isNull(data) {
		return nil
	}
	var raws map[string]json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		logger.Warn("malformed files, dropping attachments", zap.Error(err))
		return nil
	}
	files := make(Files, len(raws))
	for id, raw := range raws {
		var f BinaryFile
		if err := json.Unmarshal(raw, &f); err != nil || f == nil {
			logger.Warn("skipping malformed file", zap.String("file_id", id), zap.Error(err))
			continue
		}
		files[id] = f
	}
	return files
}

// decodeAppState projects the stored view state field by field. A value of
// the wrong type drops only that field, and a malformed collaborators value
// becomes the empty set.
func decodeAppState(data json.RawMessage, logger *zap.Logger) AppState {
	state := AppState{Collaborators: Collaborators{}}
	if isNull(data) {
		return state
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		logger.Warn("malformed appState, using empty view state", zap.Error(err))
		return state
	}
	var rawCollaborators struct {
		Collaborators json.RawMessage `json:"collaborators"`
	}
	_ = json.Unmarshal(data, &rawCollaborators)
	delete(fields, "collaborators")

	state = ProjectAppState(fields)
	if kept, err := json.Marshal(state); err == nil {
		var keptFields map[string]json.RawMessage
		_ = json.Unmarshal(kept, &keptFields)
		for key, v := range fields {
			if _, ok := keptFields[key]; !ok && v != nil {
				logger.Warn("dropping view state field", zap.String("field", key))
			}
		}
	}

	collaborators, err := ParseCollaborators(rawCollaborators.Collaborators)
	if err != nil {
		logger.Warn("malformed collaborators, using empty set", zap.Error(err))
		collaborators = Collaborators{}
	}
	state.Collaborators = collaborators
	return state
}

func decodeQuestion(w wireSlide, logger *zap.Logger) QuestionContent {
	content := QuestionContent{ID: w.ID, QuestionID: w.QuestionID}
	if isNull(w.Elements) {
		return content
	}
	if err := json.Unmarshal(w.Elements, &content.Form); err != nil {
		logger.Warn("malformed question form, using empty form",
			zap.String("slide_id", w.ID), zap.Error(err))
		content.Form = QuestionForm{}
	}
	return content
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
