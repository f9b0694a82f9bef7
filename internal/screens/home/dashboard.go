package home

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/analytics"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

func bandLabel(b analytics.Band) string {
	switch b {
	case analytics.BandStrong:
		return theme.Correct.Render("Exam ready")
	case analytics.BandImproving:
		return theme.Warning.Render("Improving")
	default:
		return theme.Incorrect.Render("Needs focus")
	}
}

func (h *HomeScreen) renderDashboard(width int) string {
	inner := width - 8

	if !h.loaded {
		return theme.Card.Width(width).Render(theme.Subtitle.Render("Loading your progress..."))
	}
	if h.statsErr != nil {
		return theme.Card.Width(width).Render(theme.Incorrect.Render("Could not load progress: " + h.statsErr.Error()))
	}

	st := h.stats
	var b strings.Builder

	b.WriteString(theme.Title.Render("Readiness") + "  " + bandLabel(st.Band()) + "\n")
	b.WriteString(components.NewProgressBar("", st.ReadinessScore, inner).View() + "\n\n")

	best := "-"
	if st.CompletedTests > 0 {
		best = st.BestScore.String()
	}
	b.WriteString(fmt.Sprintf("Tests %d   Avg accuracy %s%%   Best score %s   Streak %d day(s)",
		st.CompletedTests, st.AvgAccuracy.StringFixed(1), best, st.StreakDays))

	if st.WeakSubject != "" {
		b.WriteString("\n" + theme.Warning.Render("Weak area: ") + st.WeakSubject)
		if len(st.BySubject) > 0 {
			b.WriteString(theme.Subtitle.Render(fmt.Sprintf(" (%d mistakes)", st.BySubject[0].Count)))
		}
	}

	return theme.Card.Width(width).Render(b.String())
}
