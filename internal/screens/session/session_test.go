package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screen"
	"github.com/abhisek/mockprep/internal/screens"
	sess "github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/source"
)

// stubSource hands out q1, q2, ... with option b correct.
type stubSource struct {
	mu   sync.Mutex
	next int
	err  error
}

func (f *stubSource) FetchBatch(_ context.Context, _ source.FetchContext, count int) ([]exam.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]exam.Question, count)
	for i := range out {
		f.next++
		id := fmt.Sprintf("q%d", f.next)
		out[i] = exam.Question{
			ID:      id,
			Text:    "Question text " + id,
			Subject: "Quant",
			Options: []exam.Option{
				{ID: id + "a", Text: "48"},
				{ID: id + "b", Text: "60", IsCorrect: true},
				{ID: id + "c", Text: "72"},
				{ID: id + "d", Text: "80"},
			},
			Difficulty:    exam.DifficultyEasy,
			PositiveMarks: decimal.NewFromInt(2),
			NegativeMarks: decimal.RequireFromString("0.5"),
		}
	}
	return out, nil
}

type stubSaver struct {
	mu    sync.Mutex
	saved []exam.Attempt
}

func (s *stubSaver) SaveAttempt(_ context.Context, a exam.Attempt, _ []exam.MistakeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, a)
	return nil
}

// stillTicker never ticks, so the clock stays put during a test.
type stillTicker struct{ ch chan time.Time }

func (t stillTicker) C() <-chan time.Time { return t.ch }
func (t stillTicker) Stop()               {}

type resultStub struct{ attempt exam.Attempt }

func (r *resultStub) Init() tea.Cmd                           { return nil }
func (r *resultStub) Update(tea.Msg) (screen.Screen, tea.Cmd) { return r, nil }
func (r *resultStub) View(int, int) string                    { return "result" }
func (r *resultStub) Title() string                           { return "Result" }

func testEnv(src source.Source, saver sess.Saver) *screens.Env {
	return &screens.Env{
		UserID:  "student",
		Session: sess.Deps{Source: src, Saver: saver},
		SessionOptions: []sess.Option{
			sess.WithTickSource(func() sess.TickSource { return stillTicker{ch: make(chan time.Time)} }),
		},
	}
}

func testDef(count int) exam.TestDefinition {
	return exam.TestDefinition{
		ID:              "mock_3",
		Title:           "Mini Mock",
		DurationSeconds: 600,
		QuestionCount:   count,
		Mode:            exam.ModeFixed,
		PositiveMarks:   decimal.NewFromInt(2),
		NegativeMarks:   decimal.RequireFromString("0.5"),
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// started returns a screen whose session has loaded.
func started(t *testing.T, env *screens.Env, test exam.TestDefinition) *SessionScreen {
	t.Helper()
	s := New(env, test, func(a exam.Attempt) screen.Screen { return &resultStub{attempt: a} })
	t.Cleanup(s.Close)

	msg := s.startSession()()
	if _, ok := msg.(sessionStartedMsg); !ok {
		t.Fatalf("expected sessionStartedMsg, got %T", msg)
	}
	s.Update(msg)
	if s.ctrl == nil {
		t.Fatalf("session did not start: %s", s.errMsg)
	}
	return s
}

func press(s *SessionScreen, msg tea.KeyPressMsg) tea.Cmd {
	_, cmd := s.Update(msg)
	return cmd
}

// pressRun sends a key, runs the move or submit command it starts and
// feeds the result back, returning whatever the screen does next.
func pressRun(t *testing.T, s *SessionScreen, msg tea.KeyPressMsg) tea.Cmd {
	t.Helper()
	cmd := press(s, msg)
	if cmd == nil {
		t.Fatalf("key %q started nothing", msg.String())
	}
	out := cmd()
	switch out.(type) {
	case movedMsg, submittedMsg:
	default:
		t.Fatalf("key %q produced %T", msg.String(), out)
	}
	_, next := s.Update(out)
	return next
}

func TestAnswerFlagAndNavigate(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(3))

	if view := s.View(100, 40); !strings.Contains(view, "Question 1 of 3") {
		t.Fatalf("expected first question, got:\n%s", view)
	}
	if got := s.Status(); got != "10:00 left" {
		t.Errorf("Status = %q", got)
	}

	press(s, keyPress('b'))
	if got := s.snap.Answers["q1"]; got != "q1b" {
		t.Errorf("answer = %q, want q1b", got)
	}
	press(s, keyPress('f'))
	if !s.snap.Flagged["q1"] {
		t.Error("expected q1 flagged")
	}
	press(s, keyPress('x'))
	if _, ok := s.snap.Answers["q1"]; ok {
		t.Error("expected answer cleared")
	}

	pressRun(t, s, specialKey(tea.KeyRight))
	if s.snap.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", s.snap.Cursor)
	}
	press(s, keyPress('p'))
	if s.snap.Cursor != 0 {
		t.Fatalf("cursor = %d after prev, want 0", s.snap.Cursor)
	}
	if s.snap.Palette[0] != sess.PaletteCurrent || s.snap.Palette[1] != sess.PaletteSkipped {
		t.Errorf("palette = %v", s.snap.Palette)
	}
}

func TestNextPastLastQuestion(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(2))

	pressRun(t, s, keyPress('n'))
	pressRun(t, s, keyPress('n'))
	if s.snap.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", s.snap.Cursor)
	}
	if !strings.Contains(s.notice, "last question") {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestJumpToQuestion(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(5))

	press(s, keyPress('g'))
	if !s.jumping {
		t.Fatal("expected jump prompt")
	}
	press(s, keyPress('4'))
	pressRun(t, s, specialKey(tea.KeyEnter))
	if s.snap.Cursor != 3 {
		t.Errorf("cursor = %d, want 3", s.snap.Cursor)
	}
}

func TestSubmitReplacesWithResult(t *testing.T) {
	saver := &stubSaver{}
	s := started(t, testEnv(&stubSource{}, saver), testDef(3))

	press(s, keyPress('b'))
	press(s, keyPress('s'))
	if s.dialog != dialogSubmit {
		t.Fatal("expected submit confirmation")
	}
	if view := s.View(100, 40); !strings.Contains(view, "Answered 1 of 3") {
		t.Errorf("dialog view:\n%s", view)
	}

	cmd := pressRun(t, s, keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a navigation command after submit")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	res := msg.Screen.(*resultStub)
	if !res.attempt.Score.Equal(decimal.NewFromInt(2)) || res.attempt.Correct != 1 {
		t.Errorf("attempt = %+v", res.attempt)
	}
	if len(saver.saved) != 1 {
		t.Errorf("expected one saved attempt, got %d", len(saver.saved))
	}

	// The done notification that follows must not navigate twice.
	if _, cmd := s.Update(sessionDoneMsg{}); cmd != nil {
		t.Error("expected no second navigation")
	}
}

func TestSubmitWhileMovingShowsNotice(t *testing.T) {
	saver := &stubSaver{}
	s := started(t, testEnv(&stubSource{}, saver), testDef(3))

	if cmd := press(s, keyPress('n')); cmd == nil {
		t.Fatal("expected a move command")
	}
	press(s, keyPress('s'))
	if cmd := press(s, keyPress('y')); cmd != nil {
		t.Error("submit should not start while a move is in flight")
	}
	if !strings.Contains(s.View(100, 40), "Still loading the next question") {
		t.Errorf("expected a notice, got %q", s.notice)
	}
	if len(saver.saved) != 0 {
		t.Errorf("saved %d attempts, want 0", len(saver.saved))
	}
}

func TestSubmitCancelKeepsSession(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(3))

	press(s, keyPress('s'))
	press(s, keyPress('n'))
	if s.dialog != dialogNone || s.snap.Phase != sess.PhaseActive {
		t.Fatalf("dialog=%v phase=%v", s.dialog, s.snap.Phase)
	}
}

func TestLeaveWithoutAnswersPops(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(3))

	cmd := press(s, specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected pop")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
	if s.ctrl.Snapshot().Phase != sess.PhaseAbandoned {
		t.Error("expected session abandoned")
	}
}

func TestLeaveWithAnswersAsksFirst(t *testing.T) {
	saver := &stubSaver{}
	s := started(t, testEnv(&stubSource{}, saver), testDef(3))

	press(s, keyPress('1'))
	if cmd := press(s, specialKey(tea.KeyEscape)); cmd != nil {
		t.Fatal("expected a confirmation, not navigation")
	}
	if s.dialog != dialogLeave {
		t.Fatal("expected leave dialog")
	}

	press(s, keyPress('n'))
	if s.snap.Phase != sess.PhaseActive {
		t.Fatal("expected session still active")
	}

	press(s, specialKey(tea.KeyEscape))
	cmd := press(s, keyPress('y'))
	if cmd == nil {
		t.Fatal("expected pop after confirming")
	}
	if s.ctrl.Snapshot().Phase != sess.PhaseAbandoned {
		t.Error("expected session abandoned")
	}
	if len(saver.saved) != 0 {
		t.Error("abandoning must not save anything")
	}
}

func TestBlurCountsFocusLoss(t *testing.T) {
	s := started(t, testEnv(&stubSource{}, &stubSaver{}), testDef(3))

	s.Update(tea.BlurMsg{})
	s.Update(tea.BlurMsg{})
	if got := s.ctrl.Snapshot().FocusLosses; got != 2 {
		t.Errorf("FocusLosses = %d, want 2", got)
	}
}

func TestStartFailure(t *testing.T) {
	env := testEnv(&stubSource{err: errors.New("pool empty")}, &stubSaver{})
	s := New(env, testDef(3), nil)
	defer s.Close()

	s.Update(s.startSession()())
	if s.ctrl != nil || s.errMsg == "" {
		t.Fatal("expected start error")
	}
	if view := s.View(100, 30); !strings.Contains(view, "Could not start the test") {
		t.Errorf("view:\n%s", view)
	}
	_, cmd := s.Update(keyPress('x'))
	if cmd == nil {
		t.Fatal("expected any key to go back")
	}
}
