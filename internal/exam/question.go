// Package exam holds the core data model shared by the question source,
// the session engine, scoring and persistence.
package exam

import (
	"github.com/shopspring/decimal"
)

// OptionsPerQuestion is the fixed number of options on every question.
const OptionsPerQuestion = 4

// Difficulty is recorded on each question but never steers delivery.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Option is one answer choice. ID is unique within its question only.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is an immutable multiple-choice item.
type Question struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Options       []Option        `json:"options"`
	Subject       string          `json:"subject"`
	Difficulty    Difficulty      `json:"difficulty"`
	PositiveMarks decimal.Decimal `json:"positive_marks"`
	NegativeMarks decimal.Decimal `json:"negative_marks"`

	// Explanation is the worked solution when the source provides one.
	Explanation string `json:"explanation,omitempty"`

	// Origin names the strategy that produced the question ("generative",
	// "curated"). CloneOf is set when a curated item was cloned to pad a batch.
	Origin  string `json:"origin,omitempty"`
	CloneOf string `json:"clone_of,omitempty"`
}

// CorrectOption returns the single correct option.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// Option looks up an option by id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy so callers can never alias the option slice.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]Option(nil), q.Options...)
	return c
}
