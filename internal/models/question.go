package models

// QuestionConfig represents scoring configuration for a quiz question
type QuestionConfig struct {
	TimeLimitSeconds int `json:"timeLimitSeconds"`
	PointsCorrect    int `json:"pointsCorrect"`
	PointsWrong      int `json:"pointsWrong"`
}

// QuestionOption is one answer choice; its id is rewritten when the
// backend assigns durable ids.
type QuestionOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsSelected bool   `json:"isSelected"`
}

// QuestionForm is the structured form data of a quiz or feedback slide
type QuestionForm struct {
	Prompt                string           `json:"prompt"`
	QuestionType          string           `json:"questionType,omitempty"`
	SingleChoiceOptions   []QuestionOption `json:"singleChoiceOptions,omitempty"`
	MultipleChoiceOptions []QuestionOption `json:"multipleChoiceOptions,omitempty"`
	Explanation           string           `json:"explanation,omitempty"`
	Config                *QuestionConfig  `json:"config,omitempty"`
}

const (
	QuestionTypeSingleChoice   = "MCQS"
	QuestionTypeMultipleChoice = "MCQM"
	QuestionTypeLongAnswer     = "LONG_ANSWER"
)

func (f QuestionForm) Clone() QuestionForm {
	out := f
	out.SingleChoiceOptions = cloneOptions(f.SingleChoiceOptions)
	out.MultipleChoiceOptions = cloneOptions(f.MultipleChoiceOptions)
	if f.Config != nil {
		cfg := *f.Config
		out.Config = &cfg
	}
	return out
}

// RemapOptionIDs rewrites option ids found in ids, in both option lists.
func (f *QuestionForm) RemapOptionIDs(ids map[string]string) {
	for i, opt := range f.SingleChoiceOptions {
		if newID, ok := ids[opt.ID]; ok {
			f.SingleChoiceOptions[i].ID = newID
		}
	}
	for i, opt := range f.MultipleChoiceOptions {
		if newID, ok := ids[opt.ID]; ok {
			f.MultipleChoiceOptions[i].ID = newID
		}
	}
}

func cloneOptions(opts []QuestionOption) []QuestionOption {
	if opts == nil {
		return nil
	}
	out := make([]QuestionOption, len(opts))
	copy(out, opts)
	return out
}
