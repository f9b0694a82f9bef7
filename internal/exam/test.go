package exam

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects between a fixed question set and an unbounded stream.
type Mode string

const (
	ModeFixed     Mode = "FIXED"
	ModeUnbounded Mode = "UNBOUNDED"
)

// Category groups tests by exam family.
type Category struct {
	ID          string
	Name        string
	Description string
}

// TestDefinition is read-only configuration resolved once at session start.
type TestDefinition struct {
	ID       string
	Title    string
	Category string

	// DurationSeconds of 0 means no time limit.
	DurationSeconds int

	// QuestionCount of -1 means unbounded.
	QuestionCount int

	TotalMarks int
	Mode       Mode

	// Subjects are hints passed to the question source.
	Subjects []string

	// Marking applied to questions generated for this test.
	PositiveMarks decimal.Decimal
	NegativeMarks decimal.Decimal
}

// Duration returns the time limit, or zero for untimed tests.
func (t TestDefinition) Duration() time.Duration {
	return time.Duration(t.DurationSeconds) * time.Second
}

// Unbounded reports whether questions are fetched on demand.
func (t TestDefinition) Unbounded() bool {
	return t.Mode == ModeUnbounded
}
