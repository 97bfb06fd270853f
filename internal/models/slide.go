package models

import "encoding/json"

// SlideKind discriminates the slide variants in a presentation.
type SlideKind string

const (
	SlideKindDrawing  SlideKind = "drawing"
	SlideKindQuiz     SlideKind = "quiz"
	SlideKindFeedback SlideKind = "feedback"
)

// Valid reports whether k names one of the known slide variants.
func (k SlideKind) Valid() bool {
	switch k {
	case SlideKindDrawing, SlideKindQuiz, SlideKindFeedback:
		return true
	default:
		return false
	}
}

// Slide is one persisted unit of presentation content. The set of
// implementations is closed: *DrawingSlide, *QuizSlide and *FeedbackSlide.
type Slide interface {
	SlideID() string
	Kind() SlideKind
	Clone() Slide
	isSlide()
}

// DrawingSlide is a free-form canvas slide.
type DrawingSlide struct {
	ID       string
	Elements []Element
	AppState AppState
	Files    Files
}

func (s *DrawingSlide) SlideID() string { return s.ID }
func (s *DrawingSlide) Kind() SlideKind { return SlideKindDrawing }
func (*DrawingSlide) isSlide()          {}

func (s *DrawingSlide) Clone() Slide {
	return &DrawingSlide{
		ID:       s.ID,
		Elements: CloneElements(s.Elements),
		AppState: s.AppState.Clone(),
		Files:    s.Files.Clone(),
	}
}

func (s *DrawingSlide) MarshalJSON() ([]byte, error) {
	elements := s.Elements
	if elements == nil {
		elements = []Element{}
	}
	return json.Marshal(struct {
		ID       string    `json:"id"`
		Type     SlideKind `json:"type"`
		Elements []Element `json:"elements"`
		AppState AppState  `json:"appState"`
		Files    Files     `json:"files"`
	}{s.ID, SlideKindDrawing, elements, s.AppState, s.Files})
}

// QuestionContent is the part shared by quiz and feedback slides.
type QuestionContent struct {
	ID         string
	QuestionID string
	Form       QuestionForm
}

func (q QuestionContent) clone() QuestionContent {
	return QuestionContent{
		ID:         q.ID,
		QuestionID: q.QuestionID,
		Form:       q.Form.Clone(),
	}
}

func (q QuestionContent) marshal(kind SlideKind) ([]byte, error) {
	return json.Marshal(struct {
		ID         string       `json:"id"`
		Type       SlideKind    `json:"type"`
		QuestionID string       `json:"questionId,omitempty"`
		Elements   QuestionForm `json:"elements"`
	}{q.ID, kind, q.QuestionID, q.Form})
}

// QuizSlide carries a graded question.
type QuizSlide struct {
	QuestionContent
}

func (s *QuizSlide) SlideID() string              { return s.ID }
func (s *QuizSlide) Kind() SlideKind              { return SlideKindQuiz }
func (*QuizSlide) isSlide()                       {}
func (s *QuizSlide) Clone() Slide                 { return &QuizSlide{s.QuestionContent.clone()} }
func (s *QuizSlide) MarshalJSON() ([]byte, error) { return s.marshal(SlideKindQuiz) }

// FeedbackSlide carries an ungraded question.
type FeedbackSlide struct {
	QuestionContent
}

func (s *FeedbackSlide) SlideID() string              { return s.ID }
func (s *FeedbackSlide) Kind() SlideKind              { return SlideKindFeedback }
func (*FeedbackSlide) isSlide()                       {}
func (s *FeedbackSlide) Clone() Slide                 { return &FeedbackSlide{s.QuestionContent.clone()} }
func (s *FeedbackSlide) MarshalJSON() ([]byte, error) { return s.marshal(SlideKindFeedback) }

// CloneSlides deep-copies a slide sequence. Nil entries are dropped.
func CloneSlides(slides []Slide) []Slide {
	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		if s == nil {
			continue
		}
		out = append(out, s.Clone())
	}
	return out
}

// SlideIDs lists the ids of slides in order.
func SlideIDs(slides []Slide) []string {
	ids := make([]string, 0, len(slides))
	for _, s := range slides {
		ids = append(ids, s.SlideID())
	}
	return ids
}

// RecommendationBatch groups suggested slides by the suggestion timestamp.
// Batches are never persisted.
type RecommendationBatch struct {
	Timestamp string  `json:"timestamp"`
	Slides    []Slide `json:"slides"`
}

func (b RecommendationBatch) Clone() RecommendationBatch {
	return RecommendationBatch{Timestamp: b.Timestamp, Slides: CloneSlides(b.Slides)}
}

// SlideIDUpdate maps a client-generated temporary id to the id assigned by
// the backend on save.
type SlideIDUpdate struct {
	TempID        string           `json:"tempId"`
	NewID         string           `json:"newId"`
	NewQuestionID string           `json:"newQuestionId,omitempty"`
	OptionIDs     []OptionIDUpdate `json:"optionIds,omitempty"`
}

type OptionIDUpdate struct {
	TempID string `json:"tempId"`
	NewID  string `json:"newId"`
}

// Snapshot is a read-only projection of the store handed to viewers.
type Snapshot struct {
	Slides          []Slide               `json:"slides"`
	CurrentSlideID  string                `json:"currentSlideId,omitempty"`
	EditMode        bool                  `json:"editMode"`
	Recommendations []RecommendationBatch `json:"recommendations"`
}
