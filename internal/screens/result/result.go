// Package result shows a scored attempt.
package result

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screen"
	"github.com/abhisek/mockprep/internal/screens"
	"github.com/abhisek/mockprep/internal/screens/mistakes"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/layout"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

// ResultScreen displays the score card of one attempt.
type ResultScreen struct {
	attempt  exam.Attempt
	title    string
	mistakes int
	menu     components.Menu
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

func New(env *screens.Env, attempt exam.Attempt) *ResultScreen {
	title := attempt.TestID
	if env.Catalog != nil {
		if t, err := env.Catalog.Lookup(attempt.TestID); err == nil {
			title = t.Title
		}
	}

	s := &ResultScreen{
		attempt:  attempt,
		title:    title,
		mistakes: attempt.Answered - attempt.Correct,
	}

	review := components.MenuItem{
		Label:    fmt.Sprintf("Review mistakes (%d)", s.mistakes),
		Disabled: s.mistakes == 0 || env.Attempts == nil,
		Action: func() tea.Cmd {
			return router.Push(mistakes.ForAttempt(env, attempt.ID))
		},
	}
	home := components.MenuItem{
		Label: "Back to home",
		Action: func() tea.Cmd {
			return func() tea.Msg { return router.PopToRootMsg{} }
		},
	}
	s.menu = components.NewMenu([]components.MenuItem{review, home})
	return s
}

func (s *ResultScreen) Init() tea.Cmd { return nil }

func (s *ResultScreen) Title() string { return "Result" }

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *ResultScreen) View(width, height int) string {
	a := s.attempt
	center := func(style lipgloss.Style, text string) string {
		return layout.Centered(width, style, text) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center(theme.Title, s.title))
	b.WriteString(center(theme.Subtitle, a.EndTime.Local().Format("Mon 02 Jan 2006, 15:04")))
	b.WriteString("\n")

	scoreStyle := theme.Correct
	if a.Score.IsNegative() {
		scoreStyle = theme.Incorrect
	}
	b.WriteString(center(scoreStyle, "Score "+a.Score.String()))
	b.WriteString(center(theme.Body, fmt.Sprintf("Accuracy %s%%", a.Accuracy.StringFixed(2))))
	b.WriteString("\n")

	acc := int(a.Accuracy.Round(0).IntPart())
	bar := components.NewProgressBar("", acc, min(width-8, 50)).View()
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar) + "\n\n")

	b.WriteString(center(theme.Body, fmt.Sprintf(
		"Correct %d     Wrong %d     Skipped %d     Total %d",
		a.Correct, a.Answered-a.Correct, a.Total-a.Answered, a.Total)))
	b.WriteString(center(theme.Subtitle, "Time taken "+layout.FormatClock(int(a.TimeSpent().Seconds()))))

	if a.Trigger == exam.TriggerTimer {
		b.WriteString(center(theme.Warning, "Submitted automatically when time ran out."))
	}
	if a.FocusLosses > 0 {
		b.WriteString(center(theme.Warning, fmt.Sprintf("You left the test window %d time(s).", a.FocusLosses)))
	}
	b.WriteString("\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	return b.String()
}
