package session

// PaletteStatus is the display state of one question-palette cell.
type PaletteStatus int

const (
	PaletteUnreached PaletteStatus = iota
	PaletteSkipped
	PaletteAnswered
	PaletteFlagged
	PaletteCurrent
)

func (s PaletteStatus) String() string {
	switch s {
	case PaletteSkipped:
		return "skipped"
	case PaletteAnswered:
		return "answered"
	case PaletteFlagged:
		return "flagged"
	case PaletteCurrent:
		return "current"
	default:
		return "unreached"
	}
}

// Navigator tracks the display order, cursor, answers, and review flags
// of a session. Order only grows.
type Navigator struct {
	order   []string
	index   map[string]int
	answers map[string]string
	flagged map[string]bool
	cursor  int
	reached int // highest index the cursor has visited
}

// NewNavigator returns an empty navigator with the cursor at 0.
func NewNavigator() *Navigator {
	return &Navigator{
		index:   make(map[string]int),
		answers: make(map[string]string),
		flagged: make(map[string]bool),
	}
}

// Append extends the order. Ids already present are skipped.
func (n *Navigator) Append(ids ...string) {
	for _, id := range ids {
		if _, ok := n.index[id]; ok {
			continue
		}
		n.index[id] = len(n.order)
		n.order = append(n.order, id)
	}
}

func (n *Navigator) Len() int    { return len(n.order) }
func (n *Navigator) Cursor() int { return n.cursor }

// CurrentID is the id under the cursor, or "" when nothing is loaded.
func (n *Navigator) CurrentID() string {
	if n.cursor < 0 || n.cursor >= len(n.order) {
		return ""
	}
	return n.order[n.cursor]
}

// Order returns a copy of the display order.
func (n *Navigator) Order() []string {
	return append([]string(nil), n.order...)
}

// MoveTo places the cursor at idx.
func (n *Navigator) MoveTo(idx int) error {
	if idx < 0 || idx >= len(n.order) {
		return ErrOutOfRange
	}
	n.cursor = idx
	if idx > n.reached {
		n.reached = idx
	}
	return nil
}

// SelectAnswer records optionID for questionID, replacing any prior choice.
func (n *Navigator) SelectAnswer(questionID, optionID string) error {
	if _, ok := n.index[questionID]; !ok {
		return ErrUnknownQuestion
	}
	n.answers[questionID] = optionID
	return nil
}

// ClearAnswer removes the answer for questionID. Clearing an unanswered
// question is a no-op.
func (n *Navigator) ClearAnswer(questionID string) error {
	if _, ok := n.index[questionID]; !ok {
		return ErrUnknownQuestion
	}
	delete(n.answers, questionID)
	return nil
}

// ToggleFlag flips the review flag and returns the new value.
func (n *Navigator) ToggleFlag(questionID string) (bool, error) {
	if _, ok := n.index[questionID]; !ok {
		return false, ErrUnknownQuestion
	}
	if n.flagged[questionID] {
		delete(n.flagged, questionID)
		return false, nil
	}
	n.flagged[questionID] = true
	return true, nil
}

func (n *Navigator) Answer(questionID string) (string, bool) {
	opt, ok := n.answers[questionID]
	return opt, ok
}

// Answers returns a copy of the answer map.
func (n *Navigator) Answers() map[string]string {
	out := make(map[string]string, len(n.answers))
	for k, v := range n.answers {
		out[k] = v
	}
	return out
}

// Flagged returns a copy of the flag set.
func (n *Navigator) Flagged() map[string]bool {
	out := make(map[string]bool, len(n.flagged))
	for k := range n.flagged {
		out[k] = true
	}
	return out
}

// Status returns the palette status of position i. Current wins over
// flagged, which wins over answered.
func (n *Navigator) Status(i int) PaletteStatus {
	if i < 0 || i >= len(n.order) {
		return PaletteUnreached
	}
	id := n.order[i]
	switch {
	case i == n.cursor:
		return PaletteCurrent
	case n.flagged[id]:
		return PaletteFlagged
	case n.answers[id] != "":
		return PaletteAnswered
	case i <= n.reached:
		return PaletteSkipped
	default:
		return PaletteUnreached
	}
}

// Palette returns the status of every loaded position.
func (n *Navigator) Palette() []PaletteStatus {
	out := make([]PaletteStatus, len(n.order))
	for i := range n.order {
		out[i] = n.Status(i)
	}
	return out
}
