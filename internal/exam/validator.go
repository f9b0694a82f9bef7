package exam

import (
	"fmt"
	"strings"
)

// Validator checks a question for structural correctness.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(q Question) *ValidationError
}

// ValidationError describes why a question was rejected. Questions that fail
// validation are malformed content and are dropped at the source boundary.
type ValidationError struct {
	Validator  string
	QuestionID string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
	}
	return fmt.Sprintf("validator %q: question %s: %s", e.Validator, e.QuestionID, e.Message)
}

// DefaultValidators is the chain every question passes before it can be
// handed to a session.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&OptionsValidator{},
		&MarksValidator{},
	}
}

// Validate runs validators in order and returns the first failure.
func Validate(q Question, validators ...Validator) *ValidationError {
	if len(validators) == 0 {
		validators = DefaultValidators()
	}
	for _, v := range validators {
		if verr := v.Validate(q); verr != nil {
			return verr
		}
	}
	return nil
}

// StructuralValidator checks required fields and length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q Question) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), QuestionID: q.ID, Message: msg}
	}
	switch {
	case q.ID == "":
		return fail("id is empty")
	case strings.TrimSpace(q.Text) == "":
		return fail("text is empty")
	case len(q.Text) > 1000:
		return fail("text exceeds 1000 characters")
	case strings.TrimSpace(q.Subject) == "":
		return fail("subject is empty")
	}
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fail(fmt.Sprintf("unknown difficulty %q", q.Difficulty))
	}
	return nil
}

// OptionsValidator enforces exactly four options with unique ids, non-empty
// text, and exactly one marked correct.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q Question) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), QuestionID: q.ID, Message: msg}
	}
	if len(q.Options) != OptionsPerQuestion {
		return fail(fmt.Sprintf("has %d options, want %d", len(q.Options), OptionsPerQuestion))
	}

	seen := make(map[string]bool, len(q.Options))
	correct := 0
	for _, o := range q.Options {
		if o.ID == "" {
			return fail("option id is empty")
		}
		if seen[o.ID] {
			return fail(fmt.Sprintf("duplicate option id %q", o.ID))
		}
		seen[o.ID] = true
		if strings.TrimSpace(o.Text) == "" {
			return fail(fmt.Sprintf("option %q has empty text", o.ID))
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fail(fmt.Sprintf("has %d correct options, want exactly 1", correct))
	}
	return nil
}

// MarksValidator rejects negative marking values.
type MarksValidator struct{}

func (v *MarksValidator) Name() string { return "marks" }

func (v *MarksValidator) Validate(q Question) *ValidationError {
	if q.PositiveMarks.IsNegative() || q.NegativeMarks.IsNegative() {
		return &ValidationError{
			Validator:  v.Name(),
			QuestionID: q.ID,
			Message:    "marks must not be negative",
		}
	}
	return nil
}
