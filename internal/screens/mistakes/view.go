package mistakes

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/tutor"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

func (s *MistakesScreen) View(width, height int) string {
	cw := min(width-4, 96)

	var body string
	switch {
	case s.loading:
		body = "\n" + s.spinner.View() + " Loading mistakes..."
	case s.loadErr != nil:
		body = "\n" + theme.Incorrect.Render("Could not load mistakes: "+s.loadErr.Error())
	case len(s.records) == 0:
		body = "\n" + theme.Correct.Render("No mistakes yet.") + "\n\n" +
			theme.Hint.Render("Questions you get wrong or skip land here for review.")
	case s.detail:
		s.vp.SetWidth(cw)
		s.vp.SetHeight(max(height-2, 3))
		s.vp.SetContent(s.renderDetail(cw))
		body = s.vp.View()
	default:
		body = s.renderList(cw, height)
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(cw).Render(body))
}

func (s *MistakesScreen) renderList(width, height int) string {
	var b strings.Builder

	header := fmt.Sprintf("%d mistakes", len(s.records))
	if s.query != "" {
		header = fmt.Sprintf("%d of %d mistakes matching %q", len(s.visible), len(s.records), s.query)
	}
	b.WriteString(theme.Subtitle.Render(header) + "\n")
	if s.filtering {
		b.WriteString("Filter: " + s.filter.View() + "\n")
	}
	b.WriteString("\n")

	rows := max(height-5, 3)
	start := 0
	if s.cursor >= rows {
		start = s.cursor - rows + 1
	}
	end := min(start+rows, len(s.visible))

	for i := start; i < end; i++ {
		rec := s.records[s.visible[i]]
		line := fmt.Sprintf("%-18s %s", truncate(rec.Question.Subject, 18), truncate(firstLine(rec.Question.Text), width-34))
		line += "  " + theme.Subtitle.Render(rec.AttemptTimestamp.Local().Format("02 Jan"))

		if i == s.cursor {
			b.WriteString(theme.Selected.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *MistakesScreen) renderDetail(width int) string {
	rec, ok := s.current()
	if !ok {
		return ""
	}
	q := rec.Question

	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("%d/%d · %s · %s · %s",
		s.cursor+1, len(s.visible), q.Subject, q.Difficulty,
		rec.AttemptTimestamp.Local().Format("02 Jan 2006 15:04"))))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Bold(true).Width(width).Render(q.Text))
	b.WriteString("\n\n")
	b.WriteString(components.OptionList{Options: q.Options, Selected: rec.SelectedOptionID, Review: true}.View(width))
	b.WriteString("\n")

	st := s.explanation(rec)
	switch {
	case s.tutor == nil:
		if q.Explanation != "" {
			b.WriteString(section("Solution", q.Explanation, width))
		}
	case st == nil || st.pending:
		b.WriteString(s.spinner.View() + " Asking the tutor...")
	case st.err != nil:
		b.WriteString(theme.Incorrect.Render("Explanation failed: "+st.err.Error()) + "\n")
		b.WriteString(theme.Hint.Render("Press r to try again."))
	default:
		b.WriteString(renderExplanation(st.exp, width))
	}
	return b.String()
}

func renderExplanation(e tutor.Explanation, width int) string {
	var b strings.Builder
	switch e.Origin {
	case tutor.OriginDemo:
		b.WriteString(theme.Warning.Render("Demo mode: configure an LLM provider for full explanations.") + "\n\n")
	case tutor.OriginOffline:
		b.WriteString(theme.Warning.Render("The tutor is unreachable right now. Showing the stored solution.") + "\n\n")
	}
	b.WriteString(section("Concept", e.Concept, width))
	b.WriteString(section("Solution", e.Solution, width))
	b.WriteString(section("Shortcut", e.Shortcut, width))
	b.WriteString(section("Exam tip", e.Tip, width))
	return b.String()
}

func section(title, body string, width int) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return theme.Title.Render(title) + "\n" + theme.Body.Width(width).Render(body) + "\n\n"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

