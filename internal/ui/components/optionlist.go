package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

// OptionLabels are the letters shown next to options, in order.
var OptionLabels = []string{"A", "B", "C", "D", "E", "F"}

// OptionList renders the options of a question. During an exam only the
// chosen option is highlighted; in review mode the correct option and a
// wrong choice are coloured.
type OptionList struct {
	Options  []exam.Option
	Selected string // option id, empty when unanswered
	Review   bool
}

// OptionAt maps a key ("1".."6" or "a".."f") to an option index.
func OptionAt(key string, n int) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	var idx int
	switch {
	case c >= '1' && c <= '9':
		idx = int(c - '1')
	case c >= 'a' && c <= 'z':
		idx = int(c - 'a')
	default:
		return 0, false
	}
	if idx >= n || idx >= len(OptionLabels) {
		return 0, false
	}
	return idx, true
}

// Label returns the letter of option id, or "" if absent.
func Label(opts []exam.Option, id string) string {
	for i, o := range opts {
		if o.ID == id && i < len(OptionLabels) {
			return OptionLabels[i]
		}
	}
	return ""
}

func (l OptionList) View(width int) string {
	var b strings.Builder
	for i, opt := range l.Options {
		if i >= len(OptionLabels) {
			break
		}
		marker := "  "
		if opt.ID == l.Selected {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", marker, OptionLabels[i], opt.Text)

		style := theme.Body
		switch {
		case l.Review && opt.IsCorrect:
			style = theme.Correct
			line += "  ✓"
		case l.Review && opt.ID == l.Selected:
			style = theme.Incorrect
			line += "  ✗"
		case l.Review:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case opt.ID == l.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
