// Package session runs one exam attempt: question cache, navigation, the
// timer, on-demand pagination, and submission.
//
// All session state is owned by a single goroutine. Public methods post a
// request to that goroutine and wait for its reply, so timer ticks, user
// input, page arrivals, and submission results are applied one at a time.
// Source fetches and persistence writes run on their own goroutines and
// post their results back.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/scoring"
	"github.com/abhisek/mockprep/internal/source"
)

// DefaultInitialBatch is the first batch size of an unbounded session.
const DefaultInitialBatch = 20

// recentTexts is how many prior question texts go into a fetch context.
const recentTexts = 15

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseActive
	PhaseSubmitting
	PhaseCompleted
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "ACTIVE"
	case PhaseSubmitting:
		return "SUBMITTING"
	case PhaseCompleted:
		return "COMPLETED"
	case PhaseAbandoned:
		return "ABANDONED"
	default:
		return "NOT_STARTED"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAbandoned
}

// Saver persists a completed attempt together with its mistakes. The write
// must be atomic: either both land or neither does.
type Saver interface {
	SaveAttempt(ctx context.Context, a exam.Attempt, mistakes []exam.MistakeRecord) error
}

// TickSource delivers the one-second timer ticks.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewSecondTicker returns a TickSource backed by a one-second time.Ticker.
func NewSecondTicker() TickSource {
	return wallTicker{t: time.NewTicker(time.Second)}
}

// Deps are the collaborators and tunables of a session. Zero values pick
// the defaults.
type Deps struct {
	Source source.Source
	Saver  Saver

	// Clock stamps attempt start and end times.
	Clock func() time.Time
	// NewTicker creates the source of one-second timer ticks.
	NewTicker func() TickSource

	PageSize     int
	InitialBatch int
	SubmitRetry  RetryPolicy
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewTicker == nil {
		d.NewTicker = NewSecondTicker
	}
	if d.PageSize <= 0 {
		d.PageSize = 10
	}
	if d.InitialBatch <= 0 {
		d.InitialBatch = DefaultInitialBatch
	}
	if d.SubmitRetry.MaxAttempts <= 0 {
		d.SubmitRetry = DefaultRetryPolicy()
	}
	return d
}

// Option adjusts Deps before the session starts.
type Option func(*Deps)

func WithPageSize(n int) Option {
	return func(d *Deps) { d.PageSize = n }
}

func WithInitialBatch(n int) Option {
	return func(d *Deps) { d.InitialBatch = n }
}

func WithSubmitRetry(p RetryPolicy) Option {
	return func(d *Deps) { d.SubmitRetry = p }
}

func WithClock(now func() time.Time) Option {
	return func(d *Deps) { d.Clock = now }
}

func WithTickSource(f func() TickSource) Option {
	return func(d *Deps) { d.NewTicker = f }
}

// Controller drives one session.
type Controller struct {
	id     string
	test   exam.TestDefinition
	userID string
	deps   Deps

	requests chan func()
	quit     chan struct{}
	stopped  chan struct{}
	done     chan struct{}

	// Loop-owned state below.
	phase       Phase
	starting    bool
	cache       *QuestionCache
	nav         *Navigator
	timer       *Timer
	pager       *Paginator
	startTime   time.Time
	focusLosses int
	attempt     *exam.Attempt
	submitErr   error
	waiters     []chan submitResult
	pageWaiter  chan error
	// saving is closed once the in-flight submission has been applied.
	saving chan struct{}
}

type submitResult struct {
	attempt exam.Attempt
	err     error
}

// New returns a NOT_STARTED controller for test. Call Start to load the
// first batch, and Close when finished with it.
func New(deps Deps, test exam.TestDefinition, userID string, opts ...Option) *Controller {
	for _, o := range opts {
		o(&deps)
	}
	deps = deps.withDefaults()

	c := &Controller{
		id:       uuid.NewString(),
		test:     test,
		userID:   userID,
		deps:     deps,
		requests: make(chan func()),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
		cache:    NewQuestionCache(),
		nav:      NewNavigator(),
		pager:    NewPaginator(deps.PageSize),
	}

	// A fixed test without a duration counts up like an unbounded one.
	if !test.Unbounded() && test.DurationSeconds > 0 {
		c.timer = NewCountdown(test.DurationSeconds, c.onExpire)
	} else {
		c.timer = NewCountUp()
	}

	go c.run(deps.NewTicker())
	return c
}

// Start creates a session and loads its first batch. On failure the
// controller is closed and the error wraps source.ErrSourceUnavailable.
func Start(ctx context.Context, deps Deps, test exam.TestDefinition, userID string, opts ...Option) (*Controller, error) {
	c := New(deps, test, userID, opts...)
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Controller) run(ticker TickSource) {
	defer close(c.stopped)
	defer ticker.Stop()
	defer c.failPending()

	for {
		select {
		case fn := <-c.requests:
			fn()
		case <-ticker.C():
			c.timer.Tick()
		case <-c.quit:
			return
		}
	}
}

// post hands fn to the loop. It fails once the loop has stopped.
func (c *Controller) post(fn func()) error {
	select {
	case c.requests <- fn:
		return nil
	case <-c.stopped:
		return ErrSessionClosed
	}
}

// call runs fn on the loop and returns its result.
func call[T any](c *Controller, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	reply := make(chan result, 1)
	if err := c.post(func() {
		v, err := fn()
		reply <- result{v, err}
	}); err != nil {
		var zero T
		return zero, err
	}
	r := <-reply
	return r.v, r.err
}

func (c *Controller) exec(fn func() error) error {
	_, err := call(c, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (c *Controller) failPending() {
	if c.pageWaiter != nil {
		c.pageWaiter <- ErrSessionClosed
		c.pageWaiter = nil
	}
	for _, w := range c.waiters {
		w <- submitResult{err: ErrSessionClosed}
	}
	c.waiters = nil
}

// ID is the session id.
func (c *Controller) ID() string { return c.id }

// Test is the definition the session was created for.
func (c *Controller) Test() exam.TestDefinition { return c.test }

// Done is closed when the session reaches COMPLETED or ABANDONED.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Close stops the loop. A submission already handed to the saver is
// allowed to resolve first, so Close may block for up to the submit retry
// budget. A page still being fetched is discarded when it arrives, and
// waiting callers receive ErrSessionClosed. Close is idempotent.
func (c *Controller) Close() {
	select {
	case <-c.stopped:
		return
	default:
	}
	saving, err := call(c, func() (chan struct{}, error) { return c.saving, nil })
	if err == nil && saving != nil {
		log.Info().Str("session_id", c.id).Msg("waiting for in-flight submission before close")
		<-saving
	}
	select {
	case c.quit <- struct{}{}:
	case <-c.stopped:
	}
	<-c.stopped
}

// Start fetches the initial batch and moves NOT_STARTED to ACTIVE. A
// fixed test asks for its question count; an unbounded one for the
// initial batch size. On failure the session stays NOT_STARTED.
func (c *Controller) Start(ctx context.Context) error {
	fc, err := call(c, func() (source.FetchContext, error) {
		if c.phase != PhaseNotStarted || c.starting {
			return source.FetchContext{}, ErrAlreadyStarted
		}
		c.starting = true
		return c.fetchContext(false), nil
	})
	if err != nil {
		return err
	}

	count := c.test.QuestionCount
	if c.test.Unbounded() || count <= 0 {
		count = c.deps.InitialBatch
	}

	batch, ferr := c.deps.Source.FetchBatch(ctx, fc, count)
	if ferr == nil && len(batch) == 0 {
		ferr = errors.New("source returned no questions")
	}
	if ferr != nil && !errors.Is(ferr, source.ErrSourceUnavailable) {
		ferr = fmt.Errorf("%w: %w", source.ErrSourceUnavailable, ferr)
	}

	return c.exec(func() error {
		c.starting = false
		if ferr != nil {
			log.Error().Err(ferr).Str("session_id", c.id).Str("test_id", c.test.ID).
				Msg("initial batch failed")
			return ferr
		}
		c.nav.Append(c.cache.Put(batch)...)
		c.startTime = c.deps.Clock()
		c.phase = PhaseActive
		c.timer.Resume()
		log.Info().Str("session_id", c.id).Str("test_id", c.test.ID).
			Int("questions", c.nav.Len()).Str("timer", c.timer.Mode().String()).
			Msg("session started")
		return nil
	})
}

// fetchContext snapshots what a strategy needs. Runs on the loop.
func (c *Controller) fetchContext(continuation bool) source.FetchContext {
	exclude := make(map[string]bool, c.cache.Len())
	for _, id := range c.cache.IDs() {
		exclude[id] = true
	}
	return source.FetchContext{
		TestID:        c.test.ID,
		Subjects:      append([]string(nil), c.test.Subjects...),
		Continuation:  continuation,
		Offset:        c.nav.Len(),
		Exclude:       exclude,
		PriorTexts:    c.cache.RecentTexts(recentTexts),
		PositiveMarks: c.test.PositiveMarks,
		NegativeMarks: c.test.NegativeMarks,
	}
}

// editable guards answer and flag changes. Runs on the loop.
func (c *Controller) editable() error {
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	if c.timer.Expired() {
		return ErrInputFrozen
	}
	return nil
}

// SelectAnswer records optionID as the answer to questionID.
func (c *Controller) SelectAnswer(questionID, optionID string) error {
	return c.exec(func() error {
		if err := c.editable(); err != nil {
			return err
		}
		q, ok := c.cache.Get(questionID)
		if !ok {
			return ErrUnknownQuestion
		}
		if _, ok := q.Option(optionID); !ok {
			return ErrUnknownOption
		}
		return c.nav.SelectAnswer(questionID, optionID)
	})
}

// ClearAnswer removes the answer to questionID.
func (c *Controller) ClearAnswer(questionID string) error {
	return c.exec(func() error {
		if err := c.editable(); err != nil {
			return err
		}
		return c.nav.ClearAnswer(questionID)
	})
}

// ToggleFlag flips the review flag on questionID.
func (c *Controller) ToggleFlag(questionID string) error {
	return c.exec(func() error {
		if err := c.editable(); err != nil {
			return err
		}
		_, err := c.nav.ToggleFlag(questionID)
		return err
	})
}

// RecordFocusLoss counts the terminal losing focus. Only ACTIVE sessions count.
func (c *Controller) RecordFocusLoss() {
	_ = c.post(func() {
		if c.phase != PhaseActive {
			return
		}
		c.focusLosses++
		log.Warn().Str("session_id", c.id).Int("count", c.focusLosses).Msg("focus lost")
	})
}

// MoveTo moves the cursor to idx.
//
// In an unbounded session, moving to exactly one past the last loaded
// question fetches the next page first. The cursor moves only after the
// page has been appended; on failure the order is unchanged and a
// *FetchFailedError is returned. ctx bounds only the wait: the fetch
// itself is not cancelled when the caller gives up.
func (c *Controller) MoveTo(ctx context.Context, idx int) error {
	return c.move(ctx, func() int { return idx })
}

// MoveNext moves the cursor forward by one, paginating when needed.
func (c *Controller) MoveNext(ctx context.Context) error {
	return c.move(ctx, func() int { return c.nav.Cursor() + 1 })
}

// MovePrev moves the cursor back by one. It never fetches.
func (c *Controller) MovePrev() error {
	return c.move(context.Background(), func() int { return c.nav.Cursor() - 1 })
}

func (c *Controller) move(ctx context.Context, target func() int) error {
	reply := make(chan error, 1)
	if err := c.post(func() { c.moveTo(target(), reply) }); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) moveTo(idx int, reply chan error) {
	if c.phase != PhaseActive {
		reply <- ErrNotActive
		return
	}
	if idx >= 0 && idx < c.nav.Len() {
		reply <- c.nav.MoveTo(idx)
		return
	}
	if idx != c.nav.Len() || !c.test.Unbounded() {
		reply <- ErrOutOfRange
		return
	}

	if err := c.pager.Begin(); err != nil {
		reply <- err
		return
	}
	c.pageWaiter = reply
	from := c.nav.Cursor()

	fc := c.fetchContext(true)
	size := c.pager.PageSize()
	log.Debug().Str("session_id", c.id).Int("offset", fc.Offset).Int("size", size).Msg("fetching page")

	go func() {
		batch, err := fetchPage(context.Background(), c.deps.Source, fc, size)
		if perr := c.post(func() { c.applyPage(idx, from, batch, err) }); perr != nil {
			log.Debug().Str("session_id", c.id).Msg("page arrived after close, discarded")
		}
	}()
}

// applyPage runs on the loop when a fetch resolves. The cursor only moves
// to idx if it is still where it was when the fetch began.
func (c *Controller) applyPage(idx, from int, batch []exam.Question, err error) {
	reply := c.pageWaiter
	c.pageWaiter = nil

	if c.phase != PhaseActive {
		c.pager.End(false)
		log.Info().Str("session_id", c.id).Str("phase", c.phase.String()).
			Int("questions", len(batch)).Msg("stale page discarded")
		if reply != nil {
			reply <- ErrNotActive
		}
		return
	}

	var accepted []string
	if err == nil {
		accepted = c.cache.Put(batch)
		if len(accepted) == 0 {
			err = errors.New("page contained only known questions")
		}
	}
	if err != nil {
		c.pager.End(false)
		log.Warn().Err(err).Str("session_id", c.id).Msg("page fetch failed")
		if reply != nil {
			reply <- &FetchFailedError{Op: "paginate", Err: err}
		}
		return
	}

	c.nav.Append(accepted...)
	c.pager.End(true)
	if c.nav.Cursor() != from {
		log.Debug().Str("session_id", c.id).Int("cursor", c.nav.Cursor()).Int("target", idx).
			Msg("cursor moved while fetching, page appended in place")
		if reply != nil {
			reply <- nil
		}
		return
	}
	moveErr := c.nav.MoveTo(idx)
	if reply != nil {
		reply <- moveErr
	}
}

// Submit grades the session and persists the attempt.
//
// Submit is idempotent: after COMPLETED it returns the stored attempt, and
// a call made while a submission is in flight waits for that one. If
// persistence still fails after the retry policy is exhausted, the session
// returns to ACTIVE and a *FetchFailedError is returned; answers stay
// frozen if the timer had expired.
func (c *Controller) Submit(ctx context.Context) (exam.Attempt, error) {
	reply := make(chan submitResult, 1)
	if err := c.post(func() { c.beginSubmit(exam.TriggerUser, reply) }); err != nil {
		return exam.Attempt{}, err
	}
	select {
	case r := <-reply:
		return r.attempt, r.err
	case <-ctx.Done():
		return exam.Attempt{}, ctx.Err()
	}
}

func (c *Controller) onExpire() {
	log.Info().Str("session_id", c.id).Msg("time expired, submitting")
	c.beginSubmit(exam.TriggerTimer, nil)
}

func (c *Controller) beginSubmit(trigger exam.SubmitTrigger, reply chan submitResult) {
	respond := func(r submitResult) {
		if reply != nil {
			reply <- r
		}
	}

	switch c.phase {
	case PhaseSubmitting:
		log.Debug().Err(ErrDoubleSubmitIgnored).Str("session_id", c.id).
			Str("trigger", string(trigger)).Msg("joining in-flight submission")
		if reply != nil {
			c.waiters = append(c.waiters, reply)
		}
		return
	case PhaseCompleted:
		respond(submitResult{attempt: *c.attempt})
		return
	case PhaseActive:
	default:
		respond(submitResult{err: ErrNotActive})
		return
	}

	end := c.deps.Clock()
	res, err := scoring.Score(c.nav.Answers(), c.cache, c.nav.Order(), end)
	if err != nil {
		respond(submitResult{err: err})
		return
	}

	attempt := exam.Attempt{
		ID:          uuid.NewString(),
		TestID:      c.test.ID,
		UserID:      c.userID,
		Score:       res.Score,
		Accuracy:    res.Accuracy,
		StartTime:   c.startTime,
		EndTime:     end,
		Status:      exam.StatusCompleted,
		Correct:     res.Correct,
		Answered:    res.Answered,
		Total:       res.Total,
		FocusLosses: c.focusLosses,
		Trigger:     trigger,
	}
	mistakes := res.Mistakes
	for i := range mistakes {
		mistakes[i].AttemptID = attempt.ID
	}

	c.phase = PhaseSubmitting
	c.timer.Suspend()
	saving := make(chan struct{})
	c.saving = saving
	if reply != nil {
		c.waiters = append(c.waiters, reply)
	}

	log.Info().Str("session_id", c.id).Str("attempt_id", attempt.ID).
		Str("trigger", string(trigger)).Str("score", attempt.Score.String()).
		Int("mistakes", len(mistakes)).Msg("submitting")

	// The write is never cancelled once started, not even by Close.
	go func() {
		defer close(saving)
		err := c.deps.SubmitRetry.retry(context.Background(), "submit", func(ctx context.Context) error {
			return c.deps.Saver.SaveAttempt(ctx, attempt, mistakes)
		})
		if perr := c.post(func() { c.finishSubmit(attempt, err) }); perr != nil {
			log.Warn().Str("session_id", c.id).Msg("submission resolved after close")
		}
	}()
}

// finishSubmit runs on the loop when persistence resolves.
func (c *Controller) finishSubmit(attempt exam.Attempt, err error) {
	waiters := c.waiters
	c.waiters = nil
	c.saving = nil

	if c.phase != PhaseSubmitting {
		log.Warn().Str("session_id", c.id).Str("phase", c.phase.String()).
			Msg("stale submission result discarded")
		return
	}

	if err != nil {
		c.phase = PhaseActive
		c.submitErr = &FetchFailedError{Op: "submit", Err: err}
		c.timer.Resume()
		log.Error().Err(err).Str("session_id", c.id).Bool("expired", c.timer.Expired()).
			Msg("submission failed, session back to active")
		for _, w := range waiters {
			w <- submitResult{err: c.submitErr}
		}
		return
	}

	c.phase = PhaseCompleted
	c.attempt = &attempt
	c.submitErr = nil
	close(c.done)
	log.Info().Str("session_id", c.id).Str("attempt_id", attempt.ID).Msg("session completed")
	for _, w := range waiters {
		w <- submitResult{attempt: attempt}
	}
}

// Abandon ends an ACTIVE session without saving anything.
func (c *Controller) Abandon() error {
	return c.exec(func() error {
		if c.phase != PhaseActive {
			return ErrNotActive
		}
		c.phase = PhaseAbandoned
		c.timer.Suspend()
		close(c.done)
		log.Info().Str("session_id", c.id).Int("answered", len(c.nav.Answers())).Msg("session abandoned")
		return nil
	})
}

// CurrentQuestion returns the question under the cursor.
func (c *Controller) CurrentQuestion() (exam.Question, bool) {
	q, err := call(c, func() (exam.Question, error) {
		q, ok := c.cache.Get(c.nav.CurrentID())
		if !ok {
			return exam.Question{}, ErrOutOfRange
		}
		return q, nil
	})
	return q, err == nil
}

// Question returns the pinned question at display position idx.
func (c *Controller) Question(idx int) (exam.Question, error) {
	return call(c, func() (exam.Question, error) {
		order := c.nav.Order()
		if idx < 0 || idx >= len(order) {
			return exam.Question{}, ErrOutOfRange
		}
		q, _ := c.cache.Get(order[idx])
		return q, nil
	})
}
