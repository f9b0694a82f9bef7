package result

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/catalog"
	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screens"
	"github.com/abhisek/mockprep/internal/store"
)

func testAttempt() exam.Attempt {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return exam.Attempt{
		ID:          "att-1",
		TestID:      "mock_10",
		UserID:      "u1",
		Score:       decimal.RequireFromString("9.5"),
		Accuracy:    decimal.RequireFromString("62.50"),
		StartTime:   start,
		EndTime:     start.Add(12*time.Minute + 5*time.Second),
		Status:      exam.StatusCompleted,
		Correct:     5,
		Answered:    8,
		Total:       10,
		FocusLosses: 2,
		Trigger:     exam.TriggerTimer,
	}
}

type nopRepo struct{ store.AttemptRepo }

func testEnv() *screens.Env {
	return &screens.Env{Catalog: catalog.Default(), Attempts: nopRepo{}, UserID: "u1"}
}

func TestResultView(t *testing.T) {
	s := New(testEnv(), testAttempt())
	view := s.View(100, 30)
	for _, want := range []string{
		"Quick Mock",
		"Score 9.5",
		"Accuracy 62.50%",
		"Correct 5",
		"Wrong 3",
		"Skipped 2",
		"Time taken 12:05",
		"time ran out",
		"2 time(s)",
		"Review mistakes (3)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReviewMistakesPushesScreen(t *testing.T) {
	s := New(testEnv(), testAttempt())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if push.Screen.Title() != "Review Mistakes" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestPerfectAttemptDisablesReview(t *testing.T) {
	a := testAttempt()
	a.Correct, a.Answered = 8, 8
	s := New(testEnv(), a)

	// The only enabled item is "Back to home".
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Error("expected PopToRootMsg")
	}
}
