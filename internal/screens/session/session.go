// Package session is the exam screen. It renders a session.Controller
// and turns key presses into controller calls; all exam state lives in
// the controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screen"
	"github.com/abhisek/mockprep/internal/screens"
	sess "github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/layout"
)

type dialog int

const (
	dialogNone dialog = iota
	dialogSubmit
	dialogLeave
)

// ResultFunc builds the screen shown after a completed attempt.
type ResultFunc func(exam.Attempt) screen.Screen

// SessionScreen runs one exam attempt.
type SessionScreen struct {
	env    *screens.Env
	test   exam.TestDefinition
	result ResultFunc

	ctx    context.Context
	cancel context.CancelFunc

	ctrl    *sess.Controller
	snap    sess.Snapshot
	spinner spinner.Model

	dialog  dialog
	confirm components.Confirm

	jumping bool
	jump    components.TextInput

	busy     bool // a move or submit is in flight
	finished bool
	notice   string
	errMsg   string
}

var (
	_ screen.Screen          = (*SessionScreen)(nil)
	_ screen.KeyHintProvider = (*SessionScreen)(nil)
	_ screen.StatusProvider  = (*SessionScreen)(nil)
	_ screen.BackInterceptor = (*SessionScreen)(nil)
	_ screen.Closer          = (*SessionScreen)(nil)
)

// New creates the exam screen for test. result builds the screen that
// replaces this one once the attempt is saved.
func New(env *screens.Env, test exam.TestDefinition, result ResultFunc) *SessionScreen {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionScreen{
		env:     env,
		test:    test,
		result:  result,
		ctx:     ctx,
		cancel:  cancel,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(s.spinner.Tick, s.startSession())
}

func (s *SessionScreen) Title() string {
	return s.test.Title
}

func (s *SessionScreen) InterceptsBack() bool { return true }

// Close stops the controller. Called by the router when the screen leaves
// the stack.
func (s *SessionScreen) Close() {
	s.cancel()
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

// Status shows the clock in the header.
func (s *SessionScreen) Status() string {
	if s.ctrl == nil {
		return ""
	}
	clock := layout.FormatClock(int(s.snap.Clock.Seconds()))
	if s.snap.TimerMode == sess.Countdown {
		return clock + " left"
	}
	return clock + " elapsed"
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.ctrl == nil:
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	case s.dialog != dialogNone:
		return []layout.KeyHint{
			{Key: "Y", Description: "Yes"},
			{Key: "N", Description: "No"},
		}
	case s.jumping:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Cancel"},
		}
	case s.snap.Phase == sess.PhaseActive && s.snap.Expired:
		return []layout.KeyHint{
			{Key: "s", Description: "Retry submit"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "1-4", Description: "Answer"},
		{Key: "x", Description: "Clear"},
		{Key: "f", Description: "Flag"},
		{Key: "←→", Description: "Prev/next"},
		{Key: "g", Description: "Go to"},
		{Key: "s", Description: "Submit"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionStartedMsg:
		return s.handleStarted(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case pollMsg:
		if s.ctrl == nil {
			return s, nil
		}
		s.refresh()
		if s.snap.Phase.Terminal() {
			return s, nil
		}
		return s, pollCmd()

	case tea.BlurMsg:
		if s.ctrl != nil {
			s.ctrl.RecordFocusLoss()
		}
		return s, nil

	case movedMsg:
		s.busy = false
		s.refresh()
		s.notice = moveNotice(msg.Err, s.test)
		return s, nil

	case submittedMsg:
		s.busy = false
		s.refresh()
		if msg.Err != nil {
			s.notice = "Could not save your attempt: " + msg.Err.Error() + ". Press s to retry."
			return s, nil
		}
		return s, s.complete(msg.Attempt)

	case sessionDoneMsg:
		s.refresh()
		if s.snap.Phase == sess.PhaseCompleted && s.snap.Attempt != nil {
			return s, s.complete(*s.snap.Attempt)
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.jumping {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	return s, nil
}

// startSession loads the first batch off the UI goroutine.
func (s *SessionScreen) startSession() tea.Cmd {
	ctx, env, test := s.ctx, s.env, s.test
	return func() tea.Msg {
		ctrl, err := sess.Start(ctx, env.Session, test, env.UserID, env.SessionOptions...)
		if err == nil && ctx.Err() != nil {
			// The screen was closed while loading.
			ctrl.Close()
			return nil
		}
		return sessionStartedMsg{Ctrl: ctrl, Err: err}
	}
}

func (s *SessionScreen) handleStarted(msg sessionStartedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.ctrl = msg.Ctrl
	s.refresh()
	return s, tea.Batch(pollCmd(), s.waitDone())
}

// waitDone blocks until the controller finishes or the screen closes.
func (s *SessionScreen) waitDone() tea.Cmd {
	ctx, done := s.ctx, s.ctrl.Done()
	return func() tea.Msg {
		select {
		case <-done:
			return sessionDoneMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *SessionScreen) refresh() {
	if s.ctrl != nil {
		s.snap = s.ctrl.Snapshot()
	}
}

// complete swaps this screen for the result, once.
func (s *SessionScreen) complete(a exam.Attempt) tea.Cmd {
	if s.finished {
		return nil
	}
	s.finished = true
	if s.result == nil {
		return router.Pop
	}
	return router.Replace(s.result(a))
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, router.Pop
	}
	if s.ctrl == nil {
		if key == "esc" {
			return s, router.Pop
		}
		return s, nil
	}

	if s.dialog != dialogNone {
		return s.handleDialog(msg)
	}
	if s.jumping {
		return s.handleJump(msg)
	}

	switch s.snap.Phase {
	case sess.PhaseSubmitting:
		s.notice = "Saving your attempt..."
		return s, nil
	case sess.PhaseCompleted, sess.PhaseAbandoned:
		return s, nil
	}

	s.notice = ""
	q := s.snap.Current

	switch key {
	case "esc":
		if s.snap.HasUnsavedWork {
			s.openDialog(dialogLeave)
			return s, nil
		}
		return s, s.leave()
	case "s":
		s.openDialog(dialogSubmit)
		return s, nil
	case "right", "n", "l", "enter":
		return s, s.moveNext()
	case "left", "p", "h":
		s.setNotice(s.ctrl.MovePrev())
		s.refresh()
		return s, nil
	case "g":
		s.jumping = true
		s.jump = components.NewTextInput("question #", true, 5)
		return s, s.jump.Init()
	case "x":
		s.setNotice(s.ctrl.ClearAnswer(q.ID))
		s.refresh()
		return s, nil
	case "f":
		s.setNotice(s.ctrl.ToggleFlag(q.ID))
		s.refresh()
		return s, nil
	}

	if idx, ok := components.OptionAt(key, len(q.Options)); ok {
		s.setNotice(s.ctrl.SelectAnswer(q.ID, q.Options[idx].ID))
		s.refresh()
	}
	return s, nil
}

func (s *SessionScreen) handleDialog(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	var res components.ConfirmResult
	s.confirm, res = s.confirm.Update(msg)
	if res == components.ConfirmPending {
		return s, nil
	}
	kind := s.dialog
	s.dialog = dialogNone
	if res == components.ConfirmNo {
		return s, nil
	}

	switch kind {
	case dialogSubmit:
		return s, s.submit()
	case dialogLeave:
		return s, s.leave()
	}
	return s, nil
}

func (s *SessionScreen) handleJump(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.jumping = false
		return s, nil
	case "enter":
		s.jumping = false
		n, err := s.jump.NumericValue()
		if err != nil {
			return s, nil
		}
		return s, s.moveTo(n - 1)
	}
	var cmd tea.Cmd
	s.jump, cmd = s.jump.Update(msg)
	return s, cmd
}

func (s *SessionScreen) openDialog(d dialog) {
	s.dialog = d
	switch d {
	case dialogSubmit:
		body := fmt.Sprintf("Answered %d of %d questions.", s.snap.Answered(), s.snap.Loaded)
		if s.test.Unbounded() {
			body = fmt.Sprintf("Answered %d questions so far.", s.snap.Answered())
		}
		if flagged := len(s.snap.Flagged); flagged > 0 {
			body += fmt.Sprintf("\n%d marked for review.", flagged)
		}
		s.confirm = components.NewConfirm("Submit the test?", body, "Submit", "Keep going")
	case dialogLeave:
		s.confirm = components.NewConfirm("Leave the test?",
			fmt.Sprintf("Your %d answers will be lost.", s.snap.Answered()), "Leave", "Stay")
	}
}

// leave abandons an active session and pops the screen.
func (s *SessionScreen) leave() tea.Cmd {
	if err := s.ctrl.Abandon(); err != nil && !errors.Is(err, sess.ErrNotActive) {
		s.notice = err.Error()
		return nil
	}
	return router.Pop
}

func (s *SessionScreen) moveNext() tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	ctrl, ctx := s.ctrl, s.ctx
	return func() tea.Msg {
		return movedMsg{Err: ctrl.MoveNext(ctx)}
	}
}

func (s *SessionScreen) moveTo(idx int) tea.Cmd {
	if s.busy {
		return nil
	}
	s.busy = true
	ctrl, ctx := s.ctrl, s.ctx
	return func() tea.Msg {
		return movedMsg{Err: ctrl.MoveTo(ctx, idx)}
	}
}

func (s *SessionScreen) submit() tea.Cmd {
	if s.busy {
		s.notice = "Still loading the next question. Press s to submit again."
		return nil
	}
	s.busy = true
	ctrl, ctx := s.ctrl, s.ctx
	return func() tea.Msg {
		a, err := ctrl.Submit(ctx)
		return submittedMsg{Attempt: a, Err: err}
	}
}

func (s *SessionScreen) setNotice(err error) {
	switch {
	case err == nil:
	case errors.Is(err, sess.ErrInputFrozen):
		s.notice = "Time is up. Answers are locked."
	case errors.Is(err, sess.ErrOutOfRange):
		s.notice = "No question there."
	default:
		s.notice = err.Error()
	}
}

func moveNotice(err error, test exam.TestDefinition) string {
	var fetchErr *sess.FetchFailedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "Could not load more questions. Press → to try again."
	case errors.Is(err, sess.ErrFetchInProgress):
		return "Still loading questions..."
	case errors.Is(err, sess.ErrOutOfRange):
		if test.Unbounded() {
			return "No question there."
		}
		return "That was the last question. Press s to submit."
	case errors.Is(err, context.Canceled):
		return ""
	}
	return err.Error()
}

// pollCmd ticks the snapshot refresh.
func pollCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}
