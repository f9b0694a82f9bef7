package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	sess "github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/layout"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.ctrl == nil {
		return layout.Centered(width, theme.Subtitle,
			fmt.Sprintf("\n\n%s Preparing %s...", s.spinner.View(), s.test.Title))
	}
	if s.dialog != dialogNone {
		return "\n\n" + s.confirm.View(width)
	}
	return s.renderQuestionView(width, height)
}

func (s *SessionScreen) renderQuestionView(width, height int) string {
	snap := s.snap
	q := snap.Current
	cw := min(width-4, 100)

	var b strings.Builder

	// Position and marking line.
	pos := fmt.Sprintf("Question %d of %d", snap.Cursor+1, snap.Loaded)
	if s.test.Unbounded() {
		pos = fmt.Sprintf("Question %d", snap.Cursor+1)
	}
	info := fmt.Sprintf("%s · %s · %s · +%s / -%s",
		pos, q.Subject, q.Difficulty, q.PositiveMarks.String(), q.NegativeMarks.String())
	infoLine := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info)
	if snap.Flagged[q.ID] {
		infoLine += "  " + theme.Warning.Render("⚑ marked for review")
	}
	b.WriteString(infoLine + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw)))
	b.WriteString("\n\n")

	b.WriteString(theme.Body.Bold(true).Width(cw).Render(q.Text))
	b.WriteString("\n\n")

	b.WriteString(components.OptionList{Options: q.Options, Selected: snap.Answers[q.ID]}.View(cw))
	b.WriteString("\n")

	switch {
	case snap.Phase == sess.PhaseSubmitting:
		b.WriteString(s.spinner.View() + " Saving your attempt...")
	case snap.Fetching:
		b.WriteString(s.spinner.View() + " Loading more questions...")
	case snap.Expired && snap.Phase == sess.PhaseActive:
		b.WriteString(theme.Incorrect.Render("Time is up and your attempt could not be saved. Press s to retry."))
	case s.notice != "":
		b.WriteString(theme.Warning.Render(s.notice))
	case snap.LastSubmitErr != nil:
		b.WriteString(theme.Incorrect.Render("Last submit failed: " + snap.LastSubmitErr.Error()))
	}
	b.WriteString("\n")

	if s.jumping {
		b.WriteString("\nGo to question: " + s.jump.View() + "\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Answered %d · Marked %d", snap.Answered(), len(snap.Flagged))))
	b.WriteString("\n")
	b.WriteString(components.Palette{Cells: snap.Palette, More: s.test.Unbounded()}.View(cw))
	b.WriteString("\n")
	b.WriteString(components.PaletteLegend())

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(cw).Render(b.String()))
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\nCould not start the test: %s\n\nPress any key to go back.", errMsg))
}
