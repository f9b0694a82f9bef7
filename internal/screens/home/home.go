// Package home is the landing screen: readiness dashboard, test catalog
// by category, and links to history and the mistake book.
package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/analytics"
	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screen"
	"github.com/abhisek/mockprep/internal/screens"
	"github.com/abhisek/mockprep/internal/screens/history"
	"github.com/abhisek/mockprep/internal/screens/mistakes"
	"github.com/abhisek/mockprep/internal/screens/result"
	sessionscreen "github.com/abhisek/mockprep/internal/screens/session"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/layout"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

type statsLoadedMsg struct {
	Stats analytics.Stats
	Err   error
}

// HomeScreen is the root screen.
type HomeScreen struct {
	env        *screens.Env
	categories []exam.Category
	catIdx     int
	menu       components.Menu

	stats    analytics.Stats
	statsErr error
	loaded   bool

	now func() time.Time
}

var (
	_ screen.Screen          = (*HomeScreen)(nil)
	_ screen.KeyHintProvider = (*HomeScreen)(nil)
	_ screen.Resumer         = (*HomeScreen)(nil)
)

func New(env *screens.Env) *HomeScreen {
	h := &HomeScreen{
		env:        env,
		categories: env.Catalog.Categories(),
		now:        time.Now,
	}
	h.rebuildMenu()
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Resume reloads the dashboard after an exam or review.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Category"},
		{Key: "Enter", Description: "Select"},
		{Key: "q", Description: "Quit"},
	}
}

func (h *HomeScreen) loadStats() tea.Cmd {
	env, now := h.env, h.now
	return func() tea.Msg {
		if env.Attempts == nil {
			return statsLoadedMsg{Stats: analytics.Compute(nil, nil, now())}
		}
		ctx := context.Background()
		attempts, err := env.Attempts.LoadAttemptHistory(ctx, env.UserID, 0)
		if err != nil {
			return statsLoadedMsg{Err: err}
		}
		book, err := env.Attempts.LoadMistakes(ctx, env.UserID, 0)
		if err != nil {
			return statsLoadedMsg{Err: err}
		}
		return statsLoadedMsg{Stats: analytics.Compute(attempts, book, now())}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		h.loaded = true
		h.statsErr = msg.Err
		if msg.Err == nil {
			h.stats = msg.Stats
		}
		h.rebuildMenu()
		return h, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "right":
			h.cycleCategory(1)
			return h, nil
		case "shift+tab", "left":
			h.cycleCategory(-1)
			return h, nil
		case "q":
			return h, tea.Quit
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) cycleCategory(step int) {
	if len(h.categories) == 0 {
		return
	}
	h.catIdx = (h.catIdx + step + len(h.categories)) % len(h.categories)
	h.menu.Selected = 0
	h.rebuildMenu()
}

// startExam returns the command that opens a new exam on test.
func (h *HomeScreen) startExam(test exam.TestDefinition) tea.Cmd {
	env := h.env
	return router.Push(sessionscreen.New(env, test, func(a exam.Attempt) screen.Screen {
		return result.New(env, a)
	}))
}

func (h *HomeScreen) rebuildMenu() {
	var items []components.MenuItem

	if len(h.categories) > 0 {
		for _, t := range h.env.Catalog.ForCategory(h.categories[h.catIdx].ID) {
			items = append(items, components.MenuItem{
				Label:  t.Title,
				Detail: testDetail(t),
				Action: func() tea.Cmd { return h.startExam(t) },
			})
		}
	}

	if task := h.stats.DailyTask; h.loaded && task.Text != "" {
		item := components.MenuItem{Label: "Today: " + task.Text}
		if t, err := h.env.Catalog.Lookup(task.TestID); err == nil {
			item.Action = func() tea.Cmd { return h.startExam(t) }
		} else {
			item.Action = func() tea.Cmd { return router.Push(mistakes.ForUser(h.env)) }
		}
		items = append(items, item)
	}

	noStore := h.env.Attempts == nil
	items = append(items,
		components.MenuItem{
			Label:    "Attempt history",
			Disabled: noStore,
			Action:   func() tea.Cmd { return router.Push(history.New(h.env)) },
		},
		components.MenuItem{
			Label:    "Mistake book",
			Disabled: noStore,
			Action:   func() tea.Cmd { return router.Push(mistakes.ForUser(h.env)) },
		},
		components.MenuItem{
			Label:  "Quit",
			Action: func() tea.Cmd { return tea.Quit },
		},
	)

	selected := h.menu.Selected
	h.menu = components.NewMenu(items)
	if selected > 0 && selected < len(items) && !items[selected].Disabled {
		h.menu.Selected = selected
	}
}

func testDetail(t exam.TestDefinition) string {
	if t.Unbounded() {
		return "untimed · endless practice"
	}
	parts := []string{fmt.Sprintf("%d Qs", t.QuestionCount)}
	if t.DurationSeconds > 0 {
		parts = append(parts, fmt.Sprintf("%d min", t.DurationSeconds/60))
	}
	if t.TotalMarks > 0 {
		parts = append(parts, fmt.Sprintf("%d marks", t.TotalMarks))
	}
	return strings.Join(parts, " · ")
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 90)

	var sections []string
	sections = append(sections, h.renderDashboard(cw))
	sections = append(sections, h.renderTabs())
	sections = append(sections, h.menu.View())

	content := lipgloss.NewStyle().Width(cw).Render(strings.Join(sections, "\n\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

func (h *HomeScreen) renderTabs() string {
	tabs := make([]string, 0, len(h.categories))
	for i, c := range h.categories {
		if i == h.catIdx {
			tabs = append(tabs, theme.ButtonActive.Render(c.Name))
		} else {
			tabs = append(tabs, lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 2).Render(c.Name))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
	if len(h.categories) > 0 {
		line += "\n" + theme.Hint.Render(h.categories[h.catIdx].Description)
	}
	return line
}
