package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockprep/internal/exam"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func question(id string) exam.Question {
	return exam.Question{
		ID:   id,
		Text: "What is " + id + "?",
		Options: []exam.Option{
			{ID: "o1", Text: "a", IsCorrect: true},
			{ID: "o2", Text: "b"},
			{ID: "o3", Text: "c"},
			{ID: "o4", Text: "d"},
		},
		Subject:       "Quant",
		Difficulty:    exam.DifficultyEasy,
		PositiveMarks: decimal.NewFromInt(2),
		NegativeMarks: decimal.RequireFromString("0.5"),
		Origin:        "curated",
	}
}

func attempt(id, user string, end time.Time) exam.Attempt {
	return exam.Attempt{
		ID:          id,
		TestID:      "mock_10",
		UserID:      user,
		Score:       decimal.RequireFromString("1.5"),
		Accuracy:    decimal.RequireFromString("33.33"),
		StartTime:   end.Add(-10 * time.Minute),
		EndTime:     end,
		Status:      exam.StatusCompleted,
		Correct:     1,
		Answered:    3,
		Total:       10,
		FocusLosses: 2,
		Trigger:     exam.TriggerTimer,
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"attempts", "mistakes", "llm_request_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSaveAttemptRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := attempt("a1", "asha", end)
	q := question("q7")
	mistakes := []exam.MistakeRecord{{
		AttemptID:        "a1",
		QuestionID:       "q7",
		SelectedOptionID: "o3",
		AttemptTimestamp: end,
		Question:         q,
	}}

	require.NoError(t, repo.SaveAttempt(ctx, a, mistakes))

	got, err := repo.GetAttempt(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, a.Score.Equal(got.Score), "score %s", got.Score)
	assert.True(t, a.Accuracy.Equal(got.Accuracy), "accuracy %s", got.Accuracy)
	assert.True(t, a.StartTime.Equal(got.StartTime))
	assert.True(t, a.EndTime.Equal(got.EndTime))
	assert.Equal(t, exam.TriggerTimer, got.Trigger)
	assert.Equal(t, 2, got.FocusLosses)
	assert.Equal(t, 10*time.Minute, got.TimeSpent())

	saved, err := repo.MistakesForAttempt(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "o3", saved[0].SelectedOptionID)
	assert.Equal(t, q.Text, saved[0].Question.Text)
	assert.True(t, saved[0].Question.NegativeMarks.Equal(q.NegativeMarks))
	opt, ok := saved[0].SelectedOption()
	require.True(t, ok)
	assert.Equal(t, "c", opt.Text)
}

func TestSaveAttemptIsAtomic(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	end := time.Now().UTC()
	// The same question twice violates the (attempt, question) unique
	// index, so the whole write must roll back.
	dup := exam.MistakeRecord{QuestionID: "q1", SelectedOptionID: "o2", AttemptTimestamp: end, Question: question("q1")}
	err := repo.SaveAttempt(ctx, attempt("a1", "asha", end), []exam.MistakeRecord{dup, dup})
	require.Error(t, err)

	_, err = repo.GetAttempt(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := repo.LoadAttemptHistory(ctx, "asha", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveAttemptRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	a := attempt("a1", "asha", time.Now().UTC())
	require.NoError(t, repo.SaveAttempt(ctx, a, nil))
	assert.Error(t, repo.SaveAttempt(ctx, a, nil))
}

func TestAttemptHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("a%d", i+1)
		require.NoError(t, repo.SaveAttempt(ctx, attempt(id, "asha", base.Add(time.Duration(i)*time.Hour)), nil))
	}
	require.NoError(t, repo.SaveAttempt(ctx, attempt("other", "ravi", base.Add(5*time.Hour)), nil))

	history, err := repo.LoadAttemptHistory(ctx, "asha", 0)
	require.NoError(t, err)
	ids := make([]string, len(history))
	for i, a := range history {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a3", "a2", "a1"}, ids)

	limited, err := repo.LoadAttemptHistory(ctx, "asha", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLoadMistakesAcrossAttempts(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	early := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)

	m1 := exam.MistakeRecord{QuestionID: "q1", SelectedOptionID: "o2", AttemptTimestamp: early, Question: question("q1")}
	m2 := exam.MistakeRecord{QuestionID: "q2", SelectedOptionID: "o4", AttemptTimestamp: late, Question: question("q2")}
	require.NoError(t, repo.SaveAttempt(ctx, attempt("a1", "asha", early), []exam.MistakeRecord{m1}))
	require.NoError(t, repo.SaveAttempt(ctx, attempt("a2", "asha", late), []exam.MistakeRecord{m2}))
	require.NoError(t, repo.SaveAttempt(ctx, attempt("a3", "ravi", late), []exam.MistakeRecord{m1}))

	got, err := repo.LoadMistakes(ctx, "asha", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q2", got[0].QuestionID)
	assert.Equal(t, "a2", got[0].AttemptID)
	assert.Equal(t, "q1", got[1].QuestionID)
	assert.True(t, got[1].AttemptTimestamp.Equal(early))
}

func TestLLMEventLog(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "[user]\nhi", ResponseBody: `{"questions":[]}`},
		{Provider: "anthropic", Model: "m1", Purpose: "question-gen", InputTokens: 120, OutputTokens: 0, LatencyMs: 400, Success: false, ErrorMessage: "rate limited"},
		{Provider: "anthropic", Model: "m1", Purpose: "explain", InputTokens: 80, OutputTokens: 90, LatencyMs: 300, Success: true},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "explain", all[0].Purpose, "newest first")
	assert.Greater(t, all[0].Sequence, all[1].Sequence)

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "question-gen", Limit: 1})
	require.NoError(t, err)
	require.Len(t, gen, 1)
	assert.Equal(t, "rate limited", gen[0].ErrorMessage)

	first := all[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "[user]\nhi", got.RequestBody)
	assert.Equal(t, `{"questions":[]}`, got.ResponseBody)
	assert.True(t, got.Success)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	usage, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, LLMUsageStats{Purpose: "explain", Calls: 1, InputTokens: 80, OutputTokens: 90, AvgLatencyMs: 300}, usage[0])
	assert.Equal(t, LLMUsageStats{Purpose: "question-gen", Calls: 2, Failures: 1, InputTokens: 220, OutputTokens: 50, AvgLatencyMs: 300}, usage[1])
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Open already seeded the counter; a second one shares its row.
	sc, err := newSequenceCounter(s.DB())
	require.NoError(t, err)

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		require.NoError(t, err)
		if i > 0 && seq != prev+1 {
			t.Errorf("seq[%d] = %d, want %d", i, seq, prev+1)
		}
		prev = seq
	}
}
