// Package scoring grades a session's answers against the questions the
// student was actually shown.
package scoring

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
)

// AccuracyPlaces is the number of decimal places accuracy is rounded to.
const AccuracyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Lookup resolves question ids to their pinned content.
type Lookup interface {
	Get(id string) (exam.Question, bool)
}

// Result is the outcome of grading. It carries no hidden state: grading the
// same inputs twice yields an equal Result.
type Result struct {
	Score    decimal.Decimal
	Accuracy decimal.Decimal
	Correct  int
	Answered int
	Total    int
	Mistakes []exam.MistakeRecord
}

// Score grades answers (question id to option id) over order.
//
// A correct answer adds the question's positive marks; an incorrect one
// subtracts its negative marks and yields a mistake record; an unanswered
// question changes nothing. Accuracy is correct/answered*100, and 0 when
// nothing was answered. at stamps the mistake records.
func Score(answers map[string]string, cache Lookup, order []string, at time.Time) (Result, error) {
	res := Result{
		Score:    decimal.Zero,
		Accuracy: decimal.Zero,
		Total:    len(order),
	}

	for _, qid := range order {
		q, ok := cache.Get(qid)
		if !ok {
			return Result{}, fmt.Errorf("question %q is in the display order but not in the cache", qid)
		}

		selected, answered := answers[qid]
		if !answered {
			continue
		}
		res.Answered++

		correct, ok := q.CorrectOption()
		if !ok {
			return Result{}, fmt.Errorf("question %q has no correct option", qid)
		}

		if selected == correct.ID {
			res.Score = res.Score.Add(q.PositiveMarks)
			res.Correct++
			continue
		}

		res.Score = res.Score.Sub(q.NegativeMarks)
		res.Mistakes = append(res.Mistakes, exam.MistakeRecord{
			QuestionID:       qid,
			SelectedOptionID: selected,
			AttemptTimestamp: at,
			Question:         q.Clone(),
		})
	}

	if res.Answered > 0 {
		res.Accuracy = decimal.NewFromInt(int64(res.Correct)).
			Mul(hundred).
			DivRound(decimal.NewFromInt(int64(res.Answered)), AccuracyPlaces)
	}
	return res, nil
}

// MapLookup adapts a plain map to Lookup.
type MapLookup map[string]exam.Question

func (m MapLookup) Get(id string) (exam.Question, bool) {
	q, ok := m[id]
	return q, ok
}
