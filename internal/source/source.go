// Package source supplies validated question batches to exam sessions.
//
// A Chain tries strategies in order. Each strategy either returns validated
// questions or declines; the chain asks the next strategy for whatever the
// previous ones did not deliver.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
)

// ErrSourceUnavailable means no strategy could produce a single question.
var ErrSourceUnavailable = errors.New("question source unavailable")

// ErrDeclined is returned by a strategy that chooses not to serve a request.
var ErrDeclined = errors.New("strategy declined")

// UnavailableError carries the per-strategy causes behind ErrSourceUnavailable.
type UnavailableError struct {
	Causes map[string]error
}

func (e *UnavailableError) Error() string {
	if len(e.Causes) == 0 {
		return ErrSourceUnavailable.Error() + ": no strategies available"
	}
	parts := make([]string, 0, len(e.Causes))
	for name, err := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	return ErrSourceUnavailable.Error() + ": " + strings.Join(parts, "; ")
}

func (e *UnavailableError) Unwrap() error { return ErrSourceUnavailable }

// FetchContext describes the batch being requested.
type FetchContext struct {
	TestID   string
	Subjects []string

	// Continuation is false for the initial batch of a session.
	Continuation bool
	// Offset is the number of questions already delivered to the session.
	Offset int

	// Exclude holds ids already in the session; strategies must not return them.
	Exclude map[string]bool
	// PriorTexts are recent question texts, used to steer generation away
	// from repeats.
	PriorTexts []string

	PositiveMarks decimal.Decimal
	NegativeMarks decimal.Decimal
}

func (fc FetchContext) excluded(id string) bool {
	return fc.Exclude != nil && fc.Exclude[id]
}

// Source fetches batches of questions.
type Source interface {
	FetchBatch(ctx context.Context, fc FetchContext, count int) ([]exam.Question, error)
}

// Strategy is one way of producing questions.
type Strategy interface {
	Name() string

	// Available reports whether the strategy's backing capability exists.
	// An unavailable strategy is skipped without being treated as a failure.
	Available() bool

	// Fetch returns up to count validated questions. It may return fewer.
	Fetch(ctx context.Context, fc FetchContext, count int) ([]exam.Question, error)
}

// Chain is a Source that tries strategies in order.
type Chain struct {
	strategies []Strategy
	validators []exam.Validator
}

// NewChain builds a chain over the given strategies, tried in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		validators: exam.DefaultValidators(),
	}
}

// FetchBatch collects count questions across strategies. Every returned
// question has passed validation and has an id unique within the batch and
// absent from fc.Exclude. It fails with ErrSourceUnavailable only when no
// question at all could be produced.
func (c *Chain) FetchBatch(ctx context.Context, fc FetchContext, count int) ([]exam.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	exclude := make(map[string]bool, len(fc.Exclude)+count)
	for id := range fc.Exclude {
		exclude[id] = true
	}
	fc.Exclude = exclude

	out := make([]exam.Question, 0, count)
	causes := make(map[string]error)

	for _, s := range c.strategies {
		remaining := count - len(out)
		if remaining == 0 {
			break
		}
		if !s.Available() {
			log.Debug().Str("strategy", s.Name()).Msg("strategy unavailable, skipping")
			continue
		}

		got, err := s.Fetch(ctx, fc, remaining)
		if err != nil {
			causes[s.Name()] = err
			log.Warn().Err(err).
				Str("strategy", s.Name()).
				Str("test_id", fc.TestID).
				Int("requested", remaining).
				Msg("strategy failed, falling back")
			continue
		}

		accepted := 0
		for _, q := range got {
			if accepted == remaining {
				break
			}
			if exclude[q.ID] {
				log.Warn().Str("strategy", s.Name()).Str("question_id", q.ID).Msg("duplicate question id discarded")
				continue
			}
			if verr := exam.Validate(q, c.validators...); verr != nil {
				log.Warn().Str("strategy", s.Name()).Str("reason", verr.Error()).Msg("malformed question discarded")
				continue
			}
			exclude[q.ID] = true
			out = append(out, q.Clone())
			accepted++
		}

		if accepted < remaining {
			log.Info().
				Str("strategy", s.Name()).
				Int("delivered", accepted).
				Int("requested", remaining).
				Msg("strategy under-delivered, trying next")
		}
	}

	if len(out) == 0 {
		return nil, &UnavailableError{Causes: causes}
	}
	if len(out) < count {
		log.Warn().Int("delivered", len(out)).Int("requested", count).Msg("partial batch")
	}
	return out, nil
}
