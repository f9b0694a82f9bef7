package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/ui/theme"
)

// ConfirmResult is the outcome of a key press on a Confirm dialog.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmYes
	ConfirmNo
)

// Confirm is a yes/no dialog. Y/N answer directly; arrows move between
// the buttons and Enter picks the focused one.
type Confirm struct {
	Title string
	Body  string
	Yes   string
	No    string

	focusYes bool
}

func NewConfirm(title, body, yes, no string) Confirm {
	return Confirm{Title: title, Body: body, Yes: yes, No: no}
}

// Update returns the dialog and what the key decided.
func (c Confirm) Update(msg tea.Msg) (Confirm, ConfirmResult) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, ConfirmPending
	}
	switch kmsg.String() {
	case "y", "Y":
		return c, ConfirmYes
	case "n", "N", "esc":
		return c, ConfirmNo
	case "left", "right", "tab", "h", "l":
		c.focusYes = !c.focusYes
	case "enter":
		if c.focusYes {
			return c, ConfirmYes
		}
		return c, ConfirmNo
	}
	return c, ConfirmPending
}

func (c Confirm) View(width int) string {
	yes, no := theme.ButtonInactive, theme.ButtonActive
	if c.focusYes {
		yes, no = theme.ButtonActive, theme.ButtonInactive
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		yes.Render("[Y] "+c.Yes), "  ", no.Render("[N] "+c.No))

	var b strings.Builder
	b.WriteString(theme.Title.Render(c.Title))
	if c.Body != "" {
		b.WriteString("\n\n" + theme.Subtitle.Render(c.Body))
	}
	b.WriteString("\n\n" + buttons)

	card := theme.Card.Padding(1, 3).Render(b.String())
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}
