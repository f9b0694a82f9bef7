package exam

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptStatus is the persisted outcome of a session.
type AttemptStatus string

const (
	StatusCompleted AttemptStatus = "COMPLETED"
)

// SubmitTrigger records what ended the session.
type SubmitTrigger string

const (
	TriggerUser  SubmitTrigger = "user"
	TriggerTimer SubmitTrigger = "timer"
)

// Attempt is a scored pass through one test. It is created exactly once per
// successful submission and never modified afterwards.
type Attempt struct {
	ID        string
	TestID    string
	UserID    string
	Score     decimal.Decimal
	Accuracy  decimal.Decimal
	StartTime time.Time
	EndTime   time.Time
	Status    AttemptStatus

	Correct     int
	Answered    int
	Total       int
	FocusLosses int
	Trigger     SubmitTrigger
}

// TimeSpent returns the wall-clock duration of the attempt.
func (a Attempt) TimeSpent() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// MistakeRecord notes an incorrectly answered question. Question is the
// exact content the student saw, frozen from the session cache.
type MistakeRecord struct {
	AttemptID        string
	QuestionID       string
	SelectedOptionID string
	AttemptTimestamp time.Time
	Question         Question
}

// SelectedOption resolves the chosen option against the frozen question.
func (m MistakeRecord) SelectedOption() (Option, bool) {
	if m.SelectedOptionID == "" {
		return Option{}, false
	}
	return m.Question.Option(m.SelectedOptionID)
}
