package session

import (
	"time"

	"github.com/abhisek/mockprep/internal/exam"
	sess "github.com/abhisek/mockprep/internal/session"
)

// sessionStartedMsg carries the controller once the first batch loaded.
type sessionStartedMsg struct {
	Ctrl *sess.Controller
	Err  error
}

// pollMsg refreshes the snapshot once a second for the clock.
type pollMsg time.Time

// movedMsg reports a navigation that may have fetched a page.
type movedMsg struct {
	Err error
}

// submittedMsg reports the outcome of a user submission.
type submittedMsg struct {
	Attempt exam.Attempt
	Err     error
}

// sessionDoneMsg is sent when the controller reaches a terminal phase,
// including a timer-driven submission.
type sessionDoneMsg struct{}
