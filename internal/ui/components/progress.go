package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a 0-100 value, e.g. readiness
// or accuracy.
type ProgressBar struct {
	Label   string
	Percent int
	Width   int
}

func NewProgressBar(label string, percent, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, Width: width}
}

func (p ProgressBar) color() color.Color {
	switch {
	case p.Percent >= 80:
		return theme.Success
	case p.Percent >= 50:
		return theme.Accent
	default:
		return theme.Error
	}
}

func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	barWidth := max(p.Width-lipgloss.Width(result)-6, 4)
	filled := min(max(barWidth*p.Percent/100, 0), barWidth)

	result += lipgloss.NewStyle().Background(p.color()).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	result += theme.Subtitle.Render(fmt.Sprintf(" %3d%%", p.Percent))
	return result
}
