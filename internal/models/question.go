package models

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
)

type Option struct {
	Text      string `bson:"text" json:"text"`
	IsCorrect bool   `bson:"isCorrect" json:"isCorrect"`
}

type Question struct {
	QuestionText string   `bson:"questionText" json:"questionText"`
	Type         string   `bson:"type" json:"type"`
	Options      []Option `bson:"options" json:"options"`
}

// DeriveType classifies the question from its option flags: more than one
// correct option means "multiple", otherwise "single". The stored type field
// always holds the derived value, never caller input.
func (q *Question) DeriveType() string {
	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct > 1 {
		return QuestionTypeMultiple
	}
	return QuestionTypeSingle
}

// CorrectSet returns the indices of the options flagged correct.
func (q *Question) CorrectSet() map[int]bool {
	correct := make(map[int]bool)
	for i, opt := range q.Options {
		if opt.IsCorrect {
			correct[i] = true
		}
	}
	return correct
}

// IsAnsweredCorrectly reports whether the selected option indices are exactly
// the correct ones. No partial credit: one extra or missing selection fails
// the whole question.
func (q *Question) IsAnsweredCorrectly(selected []int) bool {
	correct := q.CorrectSet()
	given := make(map[int]bool)
	for _, i := range selected {
		given[i] = true
	}
	if len(given) != len(correct) {
		return false
	}
	for i := range correct {
		if !given[i] {
			return false
		}
	}
	return true
}
