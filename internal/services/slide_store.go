package services

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"slidedeck/internal/models"
)

// DefaultSlidesKey is the slot key the snapshot lives under unless
// overridden with WithKey.
const DefaultSlidesKey = "presentation-slides"

// Camera moves below these deltas are not worth a write.
const (
	scrollThreshold = 5.0
	zoomThreshold   = 0.01
)

const lastSlideWarning = "Cannot delete the last slide"

var ErrUnknownSlideKind = errors.New("unknown slide kind")

var equateEmpty = cmpopts.EquateEmpty()

// Notifier surfaces user-facing warnings.
type Notifier interface {
	Warn(message string)
}

// Publisher receives a read-only projection after every state change. It is
// called with the store lock held and must not call back into the store.
type Publisher interface {
	PublishSlides(snapshot models.Snapshot)
}

// SlideStore owns the slide sequence of one presentation and its durable
// snapshot. All public methods are safe for concurrent use and apply fully
// before returning.
type SlideStore struct {
	mu        sync.RWMutex
	slot      Slot
	key       string
	logger    *zap.Logger
	notifier  Notifier
	publisher Publisher
	newID     func() string

	slides          []models.Slide
	currentSlideID  string
	editMode        bool
	recommendations []models.RecommendationBatch
}

type StoreOption func(*SlideStore)

func WithKey(key string) StoreOption {
	return func(s *SlideStore) { s.key = key }
}

func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *SlideStore) { s.logger = logger }
}

func WithNotifier(n Notifier) StoreOption {
	return func(s *SlideStore) { s.notifier = n }
}

func WithPublisher(p Publisher) StoreOption {
	return func(s *SlideStore) { s.publisher = p }
}

// WithIDGenerator replaces the temporary id source (uuid by default).
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *SlideStore) { s.newID = newID }
}

// NewSlideStore loads the snapshot from slot, seeding the default templates
// when it is absent, empty or unreadable as a slide list. Only a failing
// slot read is returned as an error.
func NewSlideStore(slot Slot, opts ...StoreOption) (*SlideStore, error) {
	if slot == nil {
		return nil, fmt.Errorf("slot is required")
	}
	s := &SlideStore{
		slot:   slot,
		key:    DefaultSlidesKey,
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("slot_key", s.key))

	slides, err := s.load()
	if err != nil {
		return nil, err
	}
	s.slides = slides
	if len(slides) > 0 {
		s.currentSlideID = slides[0].SlideID()
	}
	return s, nil
}

func (s *SlideStore) load() ([]models.Slide, error) {
	raw, ok, err := s.slot.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read slides: %w", err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		s.logger.Info("no stored slides, seeding defaults")
		return models.DefaultSlides(), nil
	}
	slides, err := models.DecodeSlides(raw, s.logger)
	if err != nil {
		s.logger.Warn("malformed slide snapshot, seeding defaults", zap.Error(err))
		return models.DefaultSlides(), nil
	}
	if len(slides) == 0 {
		s.logger.Info("stored slides empty, seeding defaults")
		return models.DefaultSlides(), nil
	}
	s.logger.Info("loaded slides", zap.Int("count", len(slides)))
	return slides, nil
}

// persistLocked writes the whole sequence to the slot. Must be called with
// lock held.
func (s *SlideStore) persistLocked() error {
	data, err := models.EncodeSlides(s.slides)
	if err != nil {
		return err
	}
	if err := s.slot.Set(s.key, data); err != nil {
		s.logger.Error("failed to persist slides", zap.Error(err))
		return fmt.Errorf("failed to persist slides: %w", err)
	}
	return nil
}

func (s *SlideStore) publishLocked() {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishSlides(s.snapshotLocked())
}

func (s *SlideStore) snapshotLocked() models.Snapshot {
	recs := make([]models.RecommendationBatch, 0, len(s.recommendations))
	for _, b := range s.recommendations {
		recs = append(recs, b.Clone())
	}
	return models.Snapshot{
		Slides:          models.CloneSlides(s.slides),
		CurrentSlideID:  s.currentSlideID,
		EditMode:        s.editMode,
		Recommendations: recs,
	}
}

func (s *SlideStore) indexLocked(id string) int {
	for i, slide := range s.slides {
		if slide.SlideID() == id {
			return i
		}
	}
	return -1
}

// repointCurrentLocked keeps currentSlideID referencing an existing slide.
func (s *SlideStore) repointCurrentLocked() {
	if s.currentSlideID != "" && s.indexLocked(s.currentSlideID) >= 0 {
		return
	}
	if len(s.slides) == 0 {
		s.currentSlideID = ""
		return
	}
	s.currentSlideID = s.slides[0].SlideID()
}

// Snapshot returns a deep copy of the whole store state.
func (s *SlideStore) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Slides returns a deep copy of the slide sequence.
func (s *SlideStore) Slides() []models.Slide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneSlides(s.slides)
}

func (s *SlideStore) Slide(id string) (models.Slide, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, false
	}
	return s.slides[idx].Clone(), true
}

func (s *SlideStore) CurrentSlideID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSlideID
}

// SetCurrentSlideID selects an existing slide. Unknown ids are ignored.
func (s *SlideStore) SetCurrentSlideID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		s.logger.Warn("cannot select unknown slide", zap.String("slide_id", id))
		return false
	}
	s.currentSlideID = id
	s.publishLocked()
	return true
}

func (s *SlideStore) EditMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editMode
}

func (s *SlideStore) SetEditMode(editMode bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = editMode
	s.publishLocked()
}

// SetSlides replaces the whole sequence. Uniqueness of ids is the caller's
// responsibility. With skipSave the slot is left untouched, which lets a
// drag gesture persist once at the end through SaveSlides.
func (s *SlideStore) SetSlides(slides []models.Slide, skipSave bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slides = models.CloneSlides(slides)
	s.repointCurrentLocked()
	var err error
	if !skipSave {
		err = s.persistLocked()
	}
	s.publishLocked()
	return err
}

// SaveSlides writes the current sequence to the slot.
func (s *SlideStore) SaveSlides() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// UpdateSlide applies an editor snapshot to a drawing slide. It reports
// whether anything meaningful changed; when nothing did, neither the state
// nor the slot is touched.
func (s *SlideStore) UpdateSlide(id string, elements []models.Element, appState map[string]any, files models.Files) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.logger.Warn("update for unknown slide", zap.String("slide_id", id))
		return false, nil
	}

	var stored *models.DrawingSlide
	switch slide := s.slides[idx].(type) {
	case *models.DrawingSlide:
		stored = slide
	case *models.QuizSlide, *models.FeedbackSlide:
		s.logger.Warn("drawing update for question slide ignored",
			zap.String("slide_id", id), zap.String("kind", string(slide.Kind())))
		return false, nil
	default:
		s.logger.Warn("drawing update for unsupported slide ignored", zap.String("slide_id", id))
		return false, nil
	}

	live := models.LiveElements(elements)
	projected := models.ProjectAppState(appState)
	if !drawingChanged(stored, live, projected, files) {
		return false, nil
	}

	s.slides[idx] = &models.DrawingSlide{
		ID:       stored.ID,
		Elements: models.CloneElements(live),
		AppState: projected,
		Files:    files.Clone(),
	}
	err := s.persistLocked()
	s.publishLocked()
	return true, err
}

func drawingChanged(stored *models.DrawingSlide, elements []models.Element, state models.AppState, files models.Files) bool {
	if !cmp.Equal(stored.Elements, elements, equateEmpty) {
		return true
	}
	if appStateChanged(stored.AppState, state) {
		return true
	}
	return !cmp.Equal(stored.Files, files, equateEmpty)
}

// appStateChanged compares the persisted fields one by one. Scroll and zoom
// only count once they move past their thresholds.
func appStateChanged(prev, next models.AppState) bool {
	switch {
	case !ptrEqual(prev.ViewBackgroundColor, next.ViewBackgroundColor),
		!ptrEqual(prev.Theme, next.Theme),
		!ptrEqual(prev.GridSize, next.GridSize),
		!ptrEqual(prev.ZenModeEnabled, next.ZenModeEnabled),
		!ptrEqual(prev.CurrentItemStrokeColor, next.CurrentItemStrokeColor),
		!ptrEqual(prev.CurrentItemBackgroundColor, next.CurrentItemBackgroundColor),
		!ptrEqual(prev.CurrentItemFillStyle, next.CurrentItemFillStyle),
		!ptrEqual(prev.CurrentItemStrokeWidth, next.CurrentItemStrokeWidth),
		!ptrEqual(prev.CurrentItemStrokeStyle, next.CurrentItemStrokeStyle),
		!ptrEqual(prev.CurrentItemRoughness, next.CurrentItemRoughness),
		!ptrEqual(prev.CurrentItemOpacity, next.CurrentItemOpacity),
		!ptrEqual(prev.CurrentItemFontFamily, next.CurrentItemFontFamily),
		!ptrEqual(prev.CurrentItemFontSize, next.CurrentItemFontSize),
		!ptrEqual(prev.CurrentItemTextAlign, next.CurrentItemTextAlign),
		!ptrEqual(prev.CurrentItemStartArrowhead, next.CurrentItemStartArrowhead),
		!ptrEqual(prev.CurrentItemEndArrowhead, next.CurrentItemEndArrowhead),
		!ptrEqual(prev.CurrentItemRoundness, next.CurrentItemRoundness):
		return true
	}
	if movedPast(prev.ScrollX, next.ScrollX, scrollThreshold) || movedPast(prev.ScrollY, next.ScrollY, scrollThreshold) {
		return true
	}
	if movedPast(zoomValue(prev.Zoom), zoomValue(next.Zoom), zoomThreshold) {
		return true
	}
	return !cmp.Equal(prev.Collaborators, next.Collaborators, equateEmpty)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func movedPast(a, b *float64, threshold float64) bool {
	if a == nil || b == nil {
		return a != b
	}
	return math.Abs(*a-*b) > threshold
}

func zoomValue(z *models.Zoom) *float64 {
	if z == nil {
		return nil
	}
	return &z.Value
}

// AddSlide appends an empty slide of the given kind and selects it.
func (s *SlideStore) AddSlide(kind models.SlideKind) (models.Slide, error) {
	slide, err := models.NewSlide(kind, s.newID)
	if err != nil {
		s.logger.Warn("cannot add slide", zap.String("kind", string(kind)))
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlideKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slides = append(s.slides, slide)
	s.currentSlideID = slide.SlideID()
	err = s.persistLocked()
	s.publishLocked()
	return slide.Clone(), err
}

// DeleteSlide removes a slide. Deleting the only remaining slide is refused
// with a warning to the notifier. When the current slide is removed the
// selection moves to its predecessor, or to the new first slide.
func (s *SlideStore) DeleteSlide(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.logger.Warn("delete for unknown slide", zap.String("slide_id", id))
		return false, nil
	}
	if len(s.slides) == 1 {
		s.logger.Warn("refusing to delete last slide", zap.String("slide_id", id))
		if s.notifier != nil {
			s.notifier.Warn(lastSlideWarning)
		}
		return false, nil
	}

	next := make([]models.Slide, 0, len(s.slides)-1)
	next = append(next, s.slides[:idx]...)
	next = append(next, s.slides[idx+1:]...)
	s.slides = next

	if s.currentSlideID == id {
		switch {
		case len(s.slides) == 0:
			s.currentSlideID = ""
		case idx > 0:
			s.currentSlideID = s.slides[idx-1].SlideID()
		default:
			s.currentSlideID = s.slides[0].SlideID()
		}
	}

	err := s.persistLocked()
	s.publishLocked()
	return true, err
}

// MoveSlide moves the slide at from to position to. It does not persist;
// callers save once the gesture ends.
func (s *SlideStore) MoveSlide(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.slides)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.logger.Warn("move out of range", zap.Int("from", from), zap.Int("to", to), zap.Int("count", n))
		return false
	}
	if from == to {
		return true
	}

	moved := s.slides[from]
	next := make([]models.Slide, 0, n)
	next = append(next, s.slides[:from]...)
	next = append(next, s.slides[from+1:]...)
	next = append(next[:to], append([]models.Slide{moved}, next[to:]...)...)
	s.slides = next
	s.publishLocked()
	return true
}

// UpdateQuizFeedbackSlide replaces the form of a quiz or feedback slide.
// Identical forms are not written.
func (s *SlideStore) UpdateQuizFeedbackSlide(id string, form models.QuestionForm) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.logger.Warn("question update for unknown slide", zap.String("slide_id", id))
		return false, nil
	}

	var content models.QuestionContent
	switch slide := s.slides[idx].(type) {
	case *models.QuizSlide:
		content = slide.QuestionContent
	case *models.FeedbackSlide:
		content = slide.QuestionContent
	case *models.DrawingSlide:
		s.logger.Warn("question update for drawing slide ignored", zap.String("slide_id", id))
		return false, nil
	default:
		s.logger.Warn("question update for unsupported slide ignored", zap.String("slide_id", id))
		return false, nil
	}

	if cmp.Equal(content.Form, form, equateEmpty) {
		return false, nil
	}

	content.Form = form.Clone()
	s.slides[idx] = withQuestionContent(s.slides[idx], content)
	err := s.persistLocked()
	s.publishLocked()
	return true, err
}

func withQuestionContent(slide models.Slide, content models.QuestionContent) models.Slide {
	switch slide.(type) {
	case *models.FeedbackSlide:
		return &models.FeedbackSlide{QuestionContent: content}
	default:
		return &models.QuizSlide{QuestionContent: content}
	}
}

// UpdateSlideIDs swaps temporary ids for server-assigned ones, including
// the nested question and option ids of question slides, and repoints the
// current selection. Slides without a matching entry are untouched.
func (s *SlideStore) UpdateSlideIDs(updates []models.SlideIDUpdate) error {
	byTemp := make(map[string]models.SlideIDUpdate, len(updates))
	for _, u := range updates {
		if u.TempID == "" || u.NewID == "" {
			continue
		}
		byTemp[u.TempID] = u
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i, slide := range s.slides {
		u, ok := byTemp[slide.SlideID()]
		if !ok {
			continue
		}
		s.slides[i] = remapSlide(slide, u)
		if s.currentSlideID == u.TempID {
			s.currentSlideID = u.NewID
		}
		changed++
	}
	if changed == 0 {
		return nil
	}

	s.logger.Debug("reconciled slide ids", zap.Int("count", changed))
	err := s.persistLocked()
	s.publishLocked()
	return err
}

func remapSlide(slide models.Slide, u models.SlideIDUpdate) models.Slide {
	optionIDs := make(map[string]string, len(u.OptionIDs))
	for _, o := range u.OptionIDs {
		optionIDs[o.TempID] = o.NewID
	}
	remapQuestion := func(c models.QuestionContent) models.QuestionContent {
		c.ID = u.NewID
		if u.NewQuestionID != "" {
			c.QuestionID = u.NewQuestionID
		}
		c.Form.RemapOptionIDs(optionIDs)
		return c
	}

	switch v := slide.Clone().(type) {
	case *models.DrawingSlide:
		v.ID = u.NewID
		return v
	case *models.QuizSlide:
		return &models.QuizSlide{QuestionContent: remapQuestion(v.QuestionContent)}
	case *models.FeedbackSlide:
		return &models.FeedbackSlide{QuestionContent: remapQuestion(v.QuestionContent)}
	default:
		return slide
	}
}

// Recommendations returns a copy of the pending batches.
func (s *SlideStore) Recommendations() []models.RecommendationBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RecommendationBatch, 0, len(s.recommendations))
	for _, b := range s.recommendations {
		out = append(out, b.Clone())
	}
	return out
}

// AddRecommendationBatch records suggested slides under timestamp. Slides
// for an existing timestamp are appended to that batch. Batches are not
// persisted.
func (s *SlideStore) AddRecommendationBatch(timestamp string, slides []models.Slide) {
	slides = models.CloneSlides(slides)
	if len(slides) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recommendations {
		if s.recommendations[i].Timestamp == timestamp {
			s.recommendations[i].Slides = append(s.recommendations[i].Slides, slides...)
			s.publishLocked()
			return
		}
	}
	s.recommendations = append(s.recommendations, models.RecommendationBatch{
		Timestamp: timestamp,
		Slides:    slides,
	})
	s.publishLocked()
}

// RemoveRecommendation drops one suggested slide; a batch left empty is
// dropped with it.
func (s *SlideStore) RemoveRecommendation(timestamp, slideID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, batch := range s.recommendations {
		if batch.Timestamp != timestamp {
			continue
		}
		kept := make([]models.Slide, 0, len(batch.Slides))
		for _, slide := range batch.Slides {
			if slide.SlideID() != slideID {
				kept = append(kept, slide)
			}
		}
		if len(kept) == len(batch.Slides) {
			return false
		}
		if len(kept) == 0 {
			s.recommendations = append(s.recommendations[:i:i], s.recommendations[i+1:]...)
		} else {
			s.recommendations[i].Slides = kept
		}
		s.publishLocked()
		return true
	}
	return false
}

func (s *SlideStore) ClearRecommendations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = nil
	s.publishLocked()
}

// InitializeNewPresentationState starts over from the default templates,
// dropping recommendations and rewriting the snapshot. The slot is cleared
// first; if that fails the store is left as it was.
func (s *SlideStore) InitializeNewPresentationState() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Remove(s.key); err != nil {
		s.logger.Error("failed to clear slide snapshot", zap.Error(err))
		return fmt.Errorf("failed to clear slides: %w", err)
	}

	s.slides = models.DefaultSlides()
	s.recommendations = nil
	s.currentSlideID = ""
	s.repointCurrentLocked()

	err := s.persistLocked()
	s.publishLocked()
	return err
}
