package models

import (
	_ "embed"
	"fmt"

	"go.uber.org/zap"
)

//go:embed defaults.json
var defaultSlidesJSON []byte

// DefaultSlides returns a fresh copy of the template set used to seed an
// empty presentation. It goes through the same decoding path as a loaded
// snapshot.
func DefaultSlides() []Slide {
	slides, err := DecodeSlides(defaultSlidesJSON, zap.NewNop())
	if err != nil {
		panic(fmt.Sprintf("models: embedded default slides: %v", err))
	}
	return slides
}

// NewSlide builds an empty slide of the given kind. newID supplies the
// temporary ids for the slide, its question and its options.
func NewSlide(kind SlideKind, newID func() string) (Slide, error) {
	switch kind {
	case SlideKindDrawing:
		return &DrawingSlide{
			ID:       newID(),
			Elements: []Element{},
			AppState: AppState{Collaborators: Collaborators{}},
			Files:    Files{},
		}, nil
	case SlideKindQuiz:
		return &QuizSlide{QuestionContent{
			ID:         newID(),
			QuestionID: newID(),
			Form: QuestionForm{
				QuestionType: QuestionTypeSingleChoice,
				SingleChoiceOptions: []QuestionOption{
					{ID: newID()},
					{ID: newID()},
					{ID: newID()},
					{ID: newID()},
				},
			},
		}}, nil
	case SlideKindFeedback:
		return &FeedbackSlide{QuestionContent{
			ID:         newID(),
			QuestionID: newID(),
			Form:       QuestionForm{QuestionType: QuestionTypeLongAnswer},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown slide kind %q", kind)
	}
}
