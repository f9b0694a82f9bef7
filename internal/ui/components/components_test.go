package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/session"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestOptionAt(t *testing.T) {
	tests := []struct {
		key  string
		n    int
		want int
		ok   bool
	}{
		{"1", 4, 0, true},
		{"4", 4, 3, true},
		{"5", 4, 0, false},
		{"a", 4, 0, true},
		{"d", 4, 3, true},
		{"e", 4, 0, false},
		{"enter", 4, 0, false},
		{"0", 4, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := OptionAt(tt.key, tt.n)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("OptionAt(%q, %d) = %d, %v; want %d, %v", tt.key, tt.n, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOptionListReview(t *testing.T) {
	opts := []exam.Option{
		{ID: "o1", Text: "48"},
		{ID: "o2", Text: "60", IsCorrect: true},
	}
	if Label(opts, "o2") != "B" || Label(opts, "zz") != "" {
		t.Fatal("unexpected labels")
	}

	out := OptionList{Options: opts, Selected: "o1", Review: true}.View(40)
	if !strings.Contains(out, "A)  48  ✗") {
		t.Errorf("wrong choice not marked:\n%s", out)
	}
	if !strings.Contains(out, "B)  60  ✓") {
		t.Errorf("correct option not marked:\n%s", out)
	}
}

func TestConfirm(t *testing.T) {
	c := NewConfirm("Submit?", "", "Submit", "Cancel")

	if _, r := c.Update(keyPress('y')); r != ConfirmYes {
		t.Errorf("y: got %v", r)
	}
	if _, r := c.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); r != ConfirmNo {
		t.Errorf("esc: got %v", r)
	}
	if _, r := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); r != ConfirmNo {
		t.Errorf("enter should default to No, got %v", r)
	}

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if _, r := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); r != ConfirmYes {
		t.Errorf("enter after moving focus: got %v", r)
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "one"},
		{Label: "gone", Disabled: true},
		{Label: "two"},
	})
	if m.Selected != 1 {
		t.Fatalf("expected first enabled item selected, got %d", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("expected down to skip disabled item, got %d", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 1 {
		t.Errorf("expected up to skip disabled item, got %d", m.Selected)
	}
}

func TestPaletteView(t *testing.T) {
	p := Palette{Cells: []session.PaletteStatus{
		session.PaletteAnswered, session.PaletteCurrent, session.PaletteUnreached,
	}, More: true}
	out := p.View(80)
	for _, want := range []string{"1", "2", "3", "…"} {
		if !strings.Contains(out, want) {
			t.Errorf("palette missing %q", want)
		}
	}
}

func TestProgressBarClamps(t *testing.T) {
	if out := NewProgressBar("", 150, 20).View(); !strings.Contains(out, "150%") {
		t.Errorf("expected raw percent label, got %q", out)
	}
	if out := NewProgressBar("Ready", -5, 30).View(); !strings.Contains(out, "Ready") {
		t.Errorf("expected label, got %q", out)
	}
}
