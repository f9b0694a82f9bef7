// Package mistakes is the mistake book: wrongly answered questions from
// past attempts, each with an on-demand tutor explanation.
package mistakes

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/router"
	"github.com/abhisek/mockprep/internal/screen"
	"github.com/abhisek/mockprep/internal/screens"
	"github.com/abhisek/mockprep/internal/tutor"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/layout"
)

// bookLimit caps how many records the mistake book loads.
const bookLimit = 200

// Loader fetches the records to show.
type Loader func(ctx context.Context) ([]exam.MistakeRecord, error)

type loadedMsg struct {
	records []exam.MistakeRecord
	err     error
}

type explainedMsg struct {
	key string
	exp tutor.Explanation
	err error
}

type explainState struct {
	exp     tutor.Explanation
	err     error
	pending bool
}

// MistakesScreen lists mistakes and shows one in detail.
type MistakesScreen struct {
	title   string
	load    Loader
	tutor   screens.Explainer
	spinner spinner.Model

	loading bool
	loadErr error
	records []exam.MistakeRecord
	visible []int // indexes into records after filtering
	cursor  int

	filter    components.TextInput
	filtering bool
	query     string

	detail   bool
	vp       viewport.Model
	explains map[string]*explainState
}

var (
	_ screen.Screen          = (*MistakesScreen)(nil)
	_ screen.KeyHintProvider = (*MistakesScreen)(nil)
	_ screen.BackInterceptor = (*MistakesScreen)(nil)
)

// New creates a screen over whatever load returns.
func New(title string, load Loader, explainer screens.Explainer) *MistakesScreen {
	return &MistakesScreen{
		title:    title,
		load:     load,
		tutor:    explainer,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:  true,
		vp:       viewport.New(),
		explains: make(map[string]*explainState),
	}
}

// ForUser is the full mistake book, newest first.
func ForUser(env *screens.Env) *MistakesScreen {
	return New("Mistake Book", func(ctx context.Context) ([]exam.MistakeRecord, error) {
		return env.Attempts.LoadMistakes(ctx, env.UserID, bookLimit)
	}, env.Tutor)
}

// ForAttempt shows the mistakes of one attempt in question order.
func ForAttempt(env *screens.Env, attemptID string) *MistakesScreen {
	return New("Review Mistakes", func(ctx context.Context) ([]exam.MistakeRecord, error) {
		return env.Attempts.MistakesForAttempt(ctx, attemptID)
	}, env.Tutor)
}

func (s *MistakesScreen) Init() tea.Cmd {
	load := s.load
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		records, err := load(context.Background())
		return loadedMsg{records: records, err: err}
	})
}

func (s *MistakesScreen) Title() string { return s.title }

func (s *MistakesScreen) InterceptsBack() bool { return true }

func (s *MistakesScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.filtering:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Clear filter"},
		}
	case s.detail:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Scroll"},
			{Key: "←→", Description: "Prev/next"},
			{Key: "r", Description: "Retry explanation"},
			{Key: "Esc", Description: "Back to list"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Explain"},
		{Key: "/", Description: "Filter"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *MistakesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case loadedMsg:
		s.loading = false
		s.loadErr = msg.err
		s.records = msg.records
		s.applyFilter()
		return s, nil

	case explainedMsg:
		st := s.explains[msg.key]
		if st == nil {
			st = &explainState{}
			s.explains[msg.key] = st
		}
		st.pending = false
		st.exp = msg.exp
		st.err = msg.err
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.filtering {
		var cmd tea.Cmd
		s.filter, cmd = s.filter.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *MistakesScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.filtering {
		switch key {
		case "enter":
			s.filtering = false
			s.query = strings.TrimSpace(s.filter.Value())
			s.applyFilter()
			return s, nil
		case "esc":
			s.filtering = false
			s.query = ""
			s.applyFilter()
			return s, nil
		}
		var cmd tea.Cmd
		s.filter, cmd = s.filter.Update(msg)
		return s, cmd
	}

	if s.detail {
		switch key {
		case "esc", "backspace":
			s.detail = false
			return s, nil
		case "left", "h":
			if s.cursor > 0 {
				s.cursor--
				s.vp.GotoTop()
				return s, s.explainCurrent(false)
			}
			return s, nil
		case "right", "l":
			if s.cursor < len(s.visible)-1 {
				s.cursor++
				s.vp.GotoTop()
				return s, s.explainCurrent(false)
			}
			return s, nil
		case "r":
			return s, s.explainCurrent(true)
		}
		var cmd tea.Cmd
		s.vp, cmd = s.vp.Update(msg)
		return s, cmd
	}

	switch key {
	case "esc":
		if s.query != "" {
			s.query = ""
			s.applyFilter()
			return s, nil
		}
		return s, router.Pop
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.visible)-1 {
			s.cursor++
		}
	case "/":
		if s.loading || len(s.records) == 0 {
			return s, nil
		}
		s.filtering = true
		s.filter = components.NewTextInput("subject or text", false, 40)
		s.filter.Model.SetValue(s.query)
		return s, s.filter.Init()
	case "enter":
		if len(s.visible) == 0 {
			return s, nil
		}
		s.detail = true
		s.vp.GotoTop()
		return s, s.explainCurrent(false)
	}
	return s, nil
}

// applyFilter keeps records whose subject or text contains the query.
func (s *MistakesScreen) applyFilter() {
	q := strings.ToLower(s.query)
	s.visible = s.visible[:0]
	for i, r := range s.records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.Question.Subject), q) ||
			strings.Contains(strings.ToLower(r.Question.Text), q) {
			s.visible = append(s.visible, i)
		}
	}
	if s.cursor >= len(s.visible) {
		s.cursor = max(len(s.visible)-1, 0)
	}
}

func (s *MistakesScreen) current() (exam.MistakeRecord, bool) {
	if s.cursor < 0 || s.cursor >= len(s.visible) {
		return exam.MistakeRecord{}, false
	}
	return s.records[s.visible[s.cursor]], true
}

// explainCurrent requests an explanation for the record under the cursor
// unless one is loaded or in flight. force retries a failed one.
func (s *MistakesScreen) explainCurrent(force bool) tea.Cmd {
	rec, ok := s.current()
	if !ok || s.tutor == nil {
		return nil
	}
	view := tutor.ViewOf(rec)
	key := tutor.CacheKey(view)

	if st := s.explains[key]; st != nil {
		if st.pending || (!force && st.err == nil) {
			return nil
		}
	}
	s.explains[key] = &explainState{pending: true}

	explainer := s.tutor
	return func() tea.Msg {
		exp, err := explainer.Explain(context.Background(), view)
		return explainedMsg{key: key, exp: exp, err: err}
	}
}

func (s *MistakesScreen) explanation(rec exam.MistakeRecord) *explainState {
	return s.explains[tutor.CacheKey(tutor.ViewOf(rec))]
}
