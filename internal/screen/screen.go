package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockprep/internal/ui/layout"
)

// Screen is one page of the app.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider lets a screen supply its own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put text on the right of the header.
type StatusProvider interface {
	Status() string
}

// BackInterceptor screens receive Esc themselves instead of the app
// popping them, e.g. to confirm before leaving.
type BackInterceptor interface {
	InterceptsBack() bool
}

// Resumer screens refresh when they become active again after the screen
// above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// Closer screens own resources released when they leave the stack.
type Closer interface {
	Close()
}
