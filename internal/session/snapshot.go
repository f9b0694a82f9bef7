package session

import (
	"time"

	"github.com/abhisek/mockprep/internal/exam"
)

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	SessionID string
	Test      exam.TestDefinition
	Phase     Phase

	TimerMode TimerMode
	// Clock is remaining time for a countdown, elapsed time for count-up.
	Clock   time.Duration
	Expired bool

	Cursor   int
	Loaded   int
	Current  exam.Question
	Answers  map[string]string
	Flagged  map[string]bool
	Palette  []PaletteStatus
	Fetching bool

	FocusLosses int

	// HasUnsavedWork is true while leaving would lose answers.
	HasUnsavedWork bool
	// LastSubmitErr is the most recent persistence failure, cleared on success.
	LastSubmitErr error
	// Attempt is set once the session is COMPLETED.
	Attempt *exam.Attempt
}

// Answered is the number of answered questions.
func (s Snapshot) Answered() int { return len(s.Answers) }

// Snapshot captures the current state. After Close it reports the state
// the session was left in.
func (c *Controller) Snapshot() Snapshot {
	s, err := call(c, func() (Snapshot, error) { return c.snapshot(), nil })
	if err != nil {
		// The loop has stopped, so nothing mutates state any more.
		return c.snapshot()
	}
	return s
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		SessionID:      c.id,
		Test:           c.test,
		Phase:          c.phase,
		TimerMode:      c.timer.Mode(),
		Clock:          c.timer.Duration(),
		Expired:        c.timer.Expired(),
		Cursor:         c.nav.Cursor(),
		Loaded:         c.nav.Len(),
		Answers:        c.nav.Answers(),
		Flagged:        c.nav.Flagged(),
		Palette:        c.nav.Palette(),
		Fetching:       c.pager.State() == PageFetching,
		FocusLosses:    c.focusLosses,
		HasUnsavedWork: c.phase == PhaseSubmitting || (c.phase == PhaseActive && len(c.nav.Answers()) > 0),
		LastSubmitErr:  c.submitErr,
	}
	if id := c.nav.CurrentID(); id != "" {
		s.Current, _ = c.cache.Get(id)
	}
	if c.attempt != nil {
		a := *c.attempt
		s.Attempt = &a
	}
	return s
}
