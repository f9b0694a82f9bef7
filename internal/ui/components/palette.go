package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

const paletteCellWidth = 5

// Palette renders the question grid with one coloured cell per loaded
// question, numbered from 1.
type Palette struct {
	Cells []session.PaletteStatus
	// More shows a trailing cell for questions that will load on demand.
	More bool
}

func paletteStyle(s session.PaletteStatus) lipgloss.Style {
	switch s {
	case session.PaletteCurrent:
		return theme.PaletteCurrent
	case session.PaletteAnswered:
		return theme.PaletteAnswered
	case session.PaletteFlagged:
		return theme.PaletteFlagged
	case session.PaletteSkipped:
		return theme.PaletteSkipped
	default:
		return theme.PaletteUnreached
	}
}

func (p Palette) View(width int) string {
	perRow := max(width/(paletteCellWidth+1), 1)

	var rows []string
	var row []string
	flush := func() {
		if len(row) > 0 {
			rows = append(rows, strings.Join(row, " "))
			row = nil
		}
	}
	for i, s := range p.Cells {
		row = append(row, paletteStyle(s).Width(paletteCellWidth).Align(lipgloss.Center).Render(fmt.Sprint(i+1)))
		if len(row) == perRow {
			flush()
		}
	}
	if p.More {
		row = append(row, theme.PaletteUnreached.Width(paletteCellWidth).Align(lipgloss.Center).Render("…"))
	}
	flush()
	return strings.Join(rows, "\n")
}

// PaletteLegend explains the cell colours.
func PaletteLegend() string {
	items := []struct {
		s     session.PaletteStatus
		label string
	}{
		{session.PaletteCurrent, "current"},
		{session.PaletteAnswered, "answered"},
		{session.PaletteFlagged, "review"},
		{session.PaletteSkipped, "skipped"},
		{session.PaletteUnreached, "not seen"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, paletteStyle(it.s).Render("  ")+" "+theme.Subtitle.Render(it.label))
	}
	return strings.Join(parts, "  ")
}
