// Package analytics summarises a student's attempt history and mistake
// book for the dashboard and the stats command. It is read-only.
package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
)

var (
	readinessAccuracyWeight = decimal.RequireFromString("0.8")
	readinessPerTest        = decimal.NewFromInt(2)
	maxReadiness            = decimal.NewFromInt(100)
)

// Band buckets the readiness score.
type Band string

const (
	BandStrong     Band = "strong"
	BandImproving  Band = "improving"
	BandNeedsFocus Band = "needs-focus"
)

// SubjectMistakes counts mistakes in one subject.
type SubjectMistakes struct {
	Subject string
	Count   int
}

// Task is the suggested next thing to do. TestID is set when the task is
// to sit a specific test.
type Task struct {
	Text   string
	TestID string
}

type Stats struct {
	// ReadinessScore is min(100, round(avgAccuracy*0.8 + completed*2)).
	ReadinessScore int
	CompletedTests int
	AvgAccuracy    decimal.Decimal
	BestScore      decimal.Decimal

	// WeakSubject is the subject with the most mistakes, "" when the
	// mistake book is empty.
	WeakSubject string
	BySubject   []SubjectMistakes

	StreakDays int
	DailyTask  Task
}

func (s Stats) Band() Band {
	switch {
	case s.ReadinessScore >= 80:
		return BandStrong
	case s.ReadinessScore >= 50:
		return BandImproving
	default:
		return BandNeedsFocus
	}
}

// Compute derives Stats from completed attempts and recorded mistakes.
// now anchors the streak.
func Compute(history []exam.Attempt, mistakes []exam.MistakeRecord, now time.Time) Stats {
	s := Stats{
		CompletedTests: len(history),
		AvgAccuracy:    decimal.Zero,
		BestScore:      decimal.Zero,
	}

	if n := len(history); n > 0 {
		sum := decimal.Zero
		s.BestScore = history[0].Score
		for _, a := range history {
			sum = sum.Add(a.Accuracy)
			if a.Score.GreaterThan(s.BestScore) {
				s.BestScore = a.Score
			}
		}
		s.AvgAccuracy = sum.DivRound(decimal.NewFromInt(int64(n)), 2)
	}

	readiness := s.AvgAccuracy.Mul(readinessAccuracyWeight).
		Add(readinessPerTest.Mul(decimal.NewFromInt(int64(s.CompletedTests)))).
		Round(0)
	s.ReadinessScore = int(decimal.Min(readiness, maxReadiness).IntPart())

	s.BySubject = mistakesBySubject(mistakes)
	if len(s.BySubject) > 0 {
		s.WeakSubject = s.BySubject[0].Subject
	}
	s.StreakDays = streak(history, now)
	s.DailyTask = dailyTask(s)
	return s
}

// mistakesBySubject sorts by count descending, then subject name.
func mistakesBySubject(mistakes []exam.MistakeRecord) []SubjectMistakes {
	counts := make(map[string]int)
	for _, m := range mistakes {
		if m.Question.Subject == "" {
			continue
		}
		counts[m.Question.Subject]++
	}

	out := make([]SubjectMistakes, 0, len(counts))
	for subj, n := range counts {
		out = append(out, SubjectMistakes{Subject: subj, Count: n})
	}
	slices.SortFunc(out, func(a, b SubjectMistakes) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Subject, b.Subject)
	})
	return out
}

// streak counts consecutive calendar days with at least one attempt,
// ending today or yesterday in now's location.
func streak(history []exam.Attempt, now time.Time) int {
	days := make(map[time.Time]bool, len(history))
	for _, a := range history {
		days[dayOf(a.EndTime.In(now.Location()))] = true
	}

	day := dayOf(now)
	if !days[day] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for days[day] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dailyTask(s Stats) Task {
	switch {
	case s.CompletedTests == 0:
		return Task{Text: "Attempt Quick Mock (10 Qs)", TestID: "mock_10"}
	case len(s.BySubject) > 0 && s.BySubject[0].Count >= 3:
		return Task{Text: fmt.Sprintf("Revise %d mistakes in %s", s.BySubject[0].Count, s.WeakSubject)}
	case s.AvgAccuracy.LessThan(decimal.NewFromInt(60)):
		return Task{Text: "Attempt Quick Mock (10 Qs) and aim for 60% accuracy", TestID: "mock_10"}
	default:
		return Task{Text: "Attempt Full Mock (25 Qs)", TestID: "mock_25"}
	}
}
