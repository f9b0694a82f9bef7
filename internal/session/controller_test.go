package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/source"
)

// fakeSource hands out q1, q2, ... in order. Continuation fetches wait on
// gate when it is set.
type fakeSource struct {
	mu      sync.Mutex
	next    int
	calls   []source.FetchContext
	errs    []error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeSource) FetchBatch(ctx context.Context, fc source.FetchContext, count int) ([]exam.Question, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fc)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	gate := f.gate
	f.mu.Unlock()

	if fc.Continuation && gate != nil {
		f.entered <- struct{}{}
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]exam.Question, count)
	for i := range out {
		f.next++
		out[i] = mcq(fmt.Sprintf("q%d", f.next))
	}
	return out, nil
}

func (f *fakeSource) holdPages() {
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 8)
}

func (f *fakeSource) fetches() []source.FetchContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]source.FetchContext(nil), f.calls...)
}

type fakeSaver struct {
	mu       sync.Mutex
	calls    int
	fail     error
	saved    []exam.Attempt
	mistakes [][]exam.MistakeRecord
	gate     chan struct{}
	entered  chan struct{}
	ctxErrs  []error
}

func (s *fakeSaver) SaveAttempt(ctx context.Context, a exam.Attempt, m []exam.MistakeRecord) error {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		s.entered <- struct{}{}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.fail != nil {
		return s.fail
	}
	s.saved = append(s.saved, a)
	s.mistakes = append(s.mistakes, m)
	return nil
}

func (s *fakeSaver) hold() {
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 8)
}

func (s *fakeSaver) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *fakeSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// manualTicker delivers ticks only when the test sends them.
type manualTicker struct{ ch chan time.Time }

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

func (m *manualTicker) tick(n int) {
	for i := 0; i < n; i++ {
		m.ch <- time.Time{}
	}
}

func fixedTest(seconds, count int) exam.TestDefinition {
	return exam.TestDefinition{
		ID:              "mock_test",
		Title:           "Mock Test",
		DurationSeconds: seconds,
		QuestionCount:   count,
		Mode:            exam.ModeFixed,
		PositiveMarks:   decimal.NewFromInt(2),
		NegativeMarks:   decimal.RequireFromString("0.5"),
	}
}

func unboundedTest() exam.TestDefinition {
	return exam.TestDefinition{
		ID:            "unlimited_1",
		Title:         "Unlimited Practice",
		QuestionCount: -1,
		Mode:          exam.ModeUnbounded,
		PositiveMarks: decimal.NewFromInt(2),
		NegativeMarks: decimal.RequireFromString("0.5"),
	}
}

type harness struct {
	c      *Controller
	src    *fakeSource
	saver  *fakeSaver
	ticker *manualTicker
}

func startSession(t *testing.T, test exam.TestDefinition, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		src:    &fakeSource{},
		saver:  &fakeSaver{},
		ticker: &manualTicker{ch: make(chan time.Time)},
	}
	opts = append([]Option{
		WithTickSource(func() TickSource { return h.ticker }),
		WithInitialBatch(3),
		WithPageSize(2),
		WithSubmitRetry(RetryPolicy{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}),
	}, opts...)

	c, err := Start(context.Background(), Deps{Source: h.src, Saver: h.saver}, test, "student", opts...)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(c.Close)
	h.c = c
	return h
}

func snapshot(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	return c.Snapshot()
}

func waitFor(t *testing.T, c *Controller, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := snapshot(t, c); cond(s) {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
	return Snapshot{}
}

func TestStartFailureReportsSourceUnavailable(t *testing.T) {
	src := &fakeSource{errs: []error{errors.New("network down")}}
	ticker := &manualTicker{ch: make(chan time.Time)}
	c := New(Deps{Source: src, Saver: &fakeSaver{}}, fixedTest(900, 3), "student",
		WithTickSource(func() TickSource { return ticker }))
	defer c.Close()

	err := c.Start(context.Background())
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("Start = %v, want ErrSourceUnavailable", err)
	}
	if s := snapshot(t, c); s.Phase != PhaseNotStarted || s.Loaded != 0 {
		t.Errorf("phase %s loaded %d after failed start", s.Phase, s.Loaded)
	}

	// The session can be started again once the source recovers.
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if s := snapshot(t, c); s.Phase != PhaseActive || s.Loaded != 3 {
		t.Errorf("phase %s loaded %d, want ACTIVE 3", s.Phase, s.Loaded)
	}
}

func TestFixedSessionLoadsQuestionCount(t *testing.T) {
	h := startSession(t, fixedTest(900, 5))
	s := snapshot(t, h.c)
	if s.Loaded != 5 || s.TimerMode != Countdown || s.Clock != 900*time.Second {
		t.Errorf("loaded %d mode %s clock %s", s.Loaded, s.TimerMode, s.Clock)
	}
	if s.Current.ID != "q1" {
		t.Errorf("current = %q, want q1", s.Current.ID)
	}
	if s.HasUnsavedWork {
		t.Error("untouched session reports unsaved work")
	}
	h.c.SelectAnswer("q1", "o2")
	if !snapshot(t, h.c).HasUnsavedWork {
		t.Error("answered session reports no unsaved work")
	}
	if q, ok := h.c.CurrentQuestion(); !ok || q.ID != "q1" {
		t.Errorf("CurrentQuestion = %q, %v", q.ID, ok)
	}
}

func TestCountdownExpirySubmitsExactlyOnce(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	h.saver.hold()

	h.ticker.tick(899)
	if s := snapshot(t, h.c); s.Phase != PhaseActive || s.Clock != time.Second {
		t.Fatalf("after 899 ticks: phase %s clock %s", s.Phase, s.Clock)
	}

	h.ticker.tick(1)
	if s := snapshot(t, h.c); s.Phase != PhaseSubmitting || !s.Expired {
		t.Fatalf("after 900 ticks: phase %s expired %v", s.Phase, s.Expired)
	}
	<-h.saver.entered

	// A late tick changes nothing.
	h.ticker.tick(1)
	if s := snapshot(t, h.c); s.Clock != 0 {
		t.Errorf("clock = %s after expiry", s.Clock)
	}

	close(h.saver.gate)
	<-h.c.Done()

	if n := h.saver.count(); n != 1 {
		t.Errorf("SaveAttempt called %d times, want 1", n)
	}
	s := snapshot(t, h.c)
	if s.Phase != PhaseCompleted || s.Attempt == nil {
		t.Fatalf("phase %s attempt %v", s.Phase, s.Attempt)
	}
	if s.Attempt.Trigger != exam.TriggerTimer {
		t.Errorf("trigger = %s, want timer", s.Attempt.Trigger)
	}
	if s.HasUnsavedWork {
		t.Error("completed session reports unsaved work")
	}
}

func TestMoveToRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()

	fixed := startSession(t, fixedTest(900, 3))
	for _, idx := range []int{-1, 3, 7} {
		if err := fixed.c.MoveTo(ctx, idx); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("fixed MoveTo(%d) = %v, want ErrOutOfRange", idx, err)
		}
	}
	if err := fixed.c.MovePrev(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Prev at 0 = %v", err)
	}

	unbounded := startSession(t, unboundedTest())
	if err := unbounded.c.MoveTo(ctx, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("unbounded MoveTo(len+1) = %v, want ErrOutOfRange", err)
	}
	if got := len(unbounded.src.fetches()); got != 1 {
		t.Errorf("out-of-range move triggered a fetch (%d calls)", got)
	}
}

func TestUnboundedPaginationGrowsOrder(t *testing.T) {
	h := startSession(t, unboundedTest())
	ctx := context.Background()

	if err := h.c.MoveTo(ctx, 3); err != nil {
		t.Fatalf("MoveTo(3): %v", err)
	}
	s := snapshot(t, h.c)
	if s.Loaded != 5 || s.Cursor != 3 || s.Current.ID != "q4" {
		t.Fatalf("loaded %d cursor %d current %q", s.Loaded, s.Cursor, s.Current.ID)
	}
	if s.TimerMode != CountUp {
		t.Errorf("timer mode = %s, want count-up", s.TimerMode)
	}

	calls := h.src.fetches()
	page := calls[1]
	if !page.Continuation || page.Offset != 3 || len(page.Exclude) != 3 || !page.Exclude["q2"] {
		t.Errorf("page context = %+v", page)
	}
	if len(page.PriorTexts) != 3 {
		t.Errorf("prior texts = %v", page.PriorTexts)
	}

	// Next at the end paginates again.
	h.c.MoveTo(ctx, 4)
	if err := h.c.MoveNext(ctx); err != nil {
		t.Fatalf("MoveNext: %v", err)
	}
	if s := snapshot(t, h.c); s.Loaded != 7 || s.Cursor != 5 {
		t.Errorf("loaded %d cursor %d, want 7 5", s.Loaded, s.Cursor)
	}
}

func TestPaginationRejectsSecondFetch(t *testing.T) {
	h := startSession(t, unboundedTest())
	h.src.holdPages()
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- h.c.MoveTo(ctx, 3) }()
	<-h.src.entered

	if err := h.c.MoveTo(ctx, 3); !errors.Is(err, ErrFetchInProgress) {
		t.Errorf("second MoveTo = %v, want ErrFetchInProgress", err)
	}
	if s := snapshot(t, h.c); !s.Fetching || s.Loaded != 3 {
		t.Errorf("fetching %v loaded %d while in flight", s.Fetching, s.Loaded)
	}

	close(h.src.gate)
	if err := <-first; err != nil {
		t.Fatalf("first MoveTo: %v", err)
	}
	if s := snapshot(t, h.c); s.Loaded != 5 || s.Cursor != 3 || s.Fetching {
		t.Errorf("loaded %d cursor %d fetching %v", s.Loaded, s.Cursor, s.Fetching)
	}
}

func TestLatePageKeepsCursorWhereStudentMoved(t *testing.T) {
	h := startSession(t, unboundedTest())
	ctx := context.Background()
	if err := h.c.MoveTo(ctx, 2); err != nil {
		t.Fatal(err)
	}
	h.src.holdPages()

	next := make(chan error, 1)
	go func() { next <- h.c.MoveNext(ctx) }()
	<-h.src.entered

	// Backward navigation is allowed while the page is in flight.
	if err := h.c.MovePrev(); err != nil {
		t.Fatalf("MovePrev during fetch: %v", err)
	}
	if err := h.c.MoveTo(ctx, 0); err != nil {
		t.Fatalf("MoveTo(0) during fetch: %v", err)
	}

	close(h.src.gate)
	if err := <-next; err != nil {
		t.Fatalf("MoveNext: %v", err)
	}
	s := snapshot(t, h.c)
	if s.Loaded != 5 || s.Fetching {
		t.Errorf("loaded %d fetching %v, want 5 false", s.Loaded, s.Fetching)
	}
	if s.Cursor != 0 || s.Current.ID != "q1" {
		t.Errorf("cursor %d current %q, want 0 q1", s.Cursor, s.Current.ID)
	}

	// The appended page is reachable afterwards without another fetch.
	if err := h.c.MoveTo(ctx, 3); err != nil {
		t.Fatalf("MoveTo(3): %v", err)
	}
	if n := len(h.src.fetches()); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestPaginationFailureLeavesOrderUnchanged(t *testing.T) {
	h := startSession(t, unboundedTest())
	ctx := context.Background()
	h.c.MoveTo(ctx, 2)

	h.src.mu.Lock()
	h.src.errs = []error{errors.New("timeout")}
	h.src.mu.Unlock()

	err := h.c.MoveTo(ctx, 3)
	var ffe *FetchFailedError
	if !errors.As(err, &ffe) || ffe.Op != "paginate" || !ffe.Retryable() {
		t.Fatalf("MoveTo = %v, want paginate FetchFailedError", err)
	}
	if s := snapshot(t, h.c); s.Loaded != 3 || s.Cursor != 2 || s.Fetching {
		t.Errorf("loaded %d cursor %d fetching %v", s.Loaded, s.Cursor, s.Fetching)
	}

	if err := h.c.MoveTo(ctx, 3); err != nil {
		t.Fatalf("retry MoveTo: %v", err)
	}
}

func TestStalePageDiscardedAfterAbandon(t *testing.T) {
	h := startSession(t, unboundedTest())
	h.src.holdPages()
	ctx := context.Background()

	res := make(chan error, 1)
	go func() { res <- h.c.MoveTo(ctx, 3) }()
	<-h.src.entered

	if err := h.c.Abandon(); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	close(h.src.gate)

	if err := <-res; !errors.Is(err, ErrNotActive) {
		t.Errorf("MoveTo after abandon = %v, want ErrNotActive", err)
	}
	s := snapshot(t, h.c)
	if s.Phase != PhaseAbandoned || s.Loaded != 3 {
		t.Errorf("phase %s loaded %d", s.Phase, s.Loaded)
	}
	select {
	case <-h.c.Done():
	default:
		t.Error("Done not closed after abandon")
	}
	if h.saver.count() != 0 {
		t.Error("abandoned session was saved")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	h.saver.hold()
	ctx := context.Background()

	type result struct {
		a   exam.Attempt
		err error
	}
	results := make(chan result, 2)
	submit := func() {
		a, err := h.c.Submit(ctx)
		results <- result{a, err}
	}
	go submit()
	<-h.saver.entered

	// Whether this one joins the in-flight write or arrives after it
	// completes, it must see the same attempt.
	go submit()
	if err := h.c.SelectAnswer("q1", "o1"); !errors.Is(err, ErrNotActive) {
		t.Errorf("SelectAnswer while submitting = %v", err)
	}

	close(h.saver.gate)
	first, second := <-results, <-results
	if first.err != nil || second.err != nil {
		t.Fatalf("Submit errors: %v, %v", first.err, second.err)
	}
	if first.a.ID != second.a.ID {
		t.Errorf("attempt ids differ: %s vs %s", first.a.ID, second.a.ID)
	}

	again, err := h.c.Submit(ctx)
	if err != nil || again.ID != first.a.ID {
		t.Errorf("Submit after completion = %s, %v; want %s", again.ID, err, first.a.ID)
	}
	if n := h.saver.count(); n != 1 {
		t.Errorf("SaveAttempt called %d times, want 1", n)
	}
}

func TestSubmitScoresAgainstCachedQuestions(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	ctx := context.Background()

	if err := h.c.SelectAnswer("q1", "o1"); err != nil {
		t.Fatal(err)
	}
	if err := h.c.SelectAnswer("q2", "o3"); err != nil {
		t.Fatal(err)
	}
	if err := h.c.SelectAnswer("q3", "bogus"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("bogus option = %v", err)
	}
	h.c.RecordFocusLoss()

	a, err := h.c.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !a.Score.Equal(decimal.RequireFromString("1.5")) || !a.Accuracy.Equal(decimal.NewFromInt(50)) {
		t.Errorf("score %s accuracy %s, want 1.5 50", a.Score, a.Accuracy)
	}
	if a.Answered != 2 || a.Total != 3 || a.FocusLosses != 1 || a.Trigger != exam.TriggerUser {
		t.Errorf("attempt = %+v", a)
	}

	mistakes := h.saver.mistakes[0]
	if len(mistakes) != 1 {
		t.Fatalf("mistakes = %d, want 1", len(mistakes))
	}
	m := mistakes[0]
	if m.AttemptID != a.ID || m.QuestionID != "q2" || m.SelectedOptionID != "o3" || m.Question.Text != "Question q2" {
		t.Errorf("mistake = %+v", m)
	}
}

func TestZeroAnswerSubmission(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))

	a, err := h.c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !a.Score.IsZero() || !a.Accuracy.IsZero() || a.Answered != 0 || a.Total != 3 {
		t.Errorf("attempt = %+v", a)
	}
	if len(h.saver.mistakes[0]) != 0 {
		t.Errorf("mistakes recorded for an empty submission")
	}
}

func TestPersistenceFailureReturnsToActive(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	h.saver.setFail(errors.New("disk full"))
	ctx := context.Background()
	h.c.SelectAnswer("q1", "o1")

	_, err := h.c.Submit(ctx)
	var ffe *FetchFailedError
	if !errors.As(err, &ffe) || ffe.Op != "submit" {
		t.Fatalf("Submit = %v, want submit FetchFailedError", err)
	}
	if n := h.saver.count(); n != 2 {
		t.Errorf("SaveAttempt called %d times, want 2 (retry policy)", n)
	}

	s := snapshot(t, h.c)
	if s.Phase != PhaseActive || s.LastSubmitErr == nil {
		t.Fatalf("phase %s last error %v", s.Phase, s.LastSubmitErr)
	}
	if s.Answers["q1"] != "o1" {
		t.Error("answers lost after failed submission")
	}

	// Not expired, so the student can keep working.
	h.ticker.tick(1)
	if s := snapshot(t, h.c); s.Clock != 899*time.Second {
		t.Errorf("clock = %s, want timer resumed", s.Clock)
	}
	if err := h.c.SelectAnswer("q2", "o1"); err != nil {
		t.Errorf("SelectAnswer after failure: %v", err)
	}

	h.saver.setFail(nil)
	a, err := h.c.Submit(ctx)
	if err != nil {
		t.Fatalf("manual retry: %v", err)
	}
	if a.Correct != 2 {
		t.Errorf("correct = %d, want 2", a.Correct)
	}
}

func TestExpiredSessionStaysFrozenAfterFailedSubmit(t *testing.T) {
	h := startSession(t, fixedTest(2, 3))
	h.saver.setFail(errors.New("locked"))

	h.ticker.tick(2)
	s := waitFor(t, h.c, "failed timer submission", func(s Snapshot) bool {
		return s.Phase == PhaseActive && s.LastSubmitErr != nil
	})
	if !s.Expired {
		t.Fatal("session not marked expired")
	}

	if err := h.c.SelectAnswer("q1", "o1"); !errors.Is(err, ErrInputFrozen) {
		t.Errorf("SelectAnswer after expiry = %v, want ErrInputFrozen", err)
	}
	h.ticker.tick(3)

	h.saver.setFail(nil)
	a, err := h.c.Submit(context.Background())
	if err != nil {
		t.Fatalf("manual submit: %v", err)
	}
	if a.Answered != 0 {
		t.Errorf("answered = %d, want 0", a.Answered)
	}
}

func TestCloseLetsInFlightSubmissionFinish(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	if err := h.c.SelectAnswer("q1", "o1"); err != nil {
		t.Fatal(err)
	}
	h.saver.hold()

	go h.c.Submit(context.Background())
	<-h.saver.entered

	closed := make(chan struct{})
	go func() {
		h.c.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the attempt was still being written")
	case <-time.After(20 * time.Millisecond):
	}

	close(h.saver.gate)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the write finished")
	}

	h.saver.mu.Lock()
	defer h.saver.mu.Unlock()
	if len(h.saver.saved) != 1 {
		t.Fatalf("saved %d attempts, want 1", len(h.saver.saved))
	}
	if err := h.saver.ctxErrs[0]; err != nil {
		t.Errorf("SaveAttempt context after Close: %v", err)
	}
	select {
	case <-h.c.Done():
	default:
		t.Error("session not completed")
	}
}

func TestClosedSessionRejectsCalls(t *testing.T) {
	h := startSession(t, fixedTest(900, 3))
	h.c.SelectAnswer("q2", "o1")
	h.c.Close()
	h.c.Close()

	if s := h.c.Snapshot(); s.Phase != PhaseActive || s.Answers["q2"] != "o1" {
		t.Errorf("snapshot after close = %s %v", s.Phase, s.Answers)
	}
	if err := h.c.SelectAnswer("q1", "o1"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SelectAnswer after close = %v", err)
	}
}
