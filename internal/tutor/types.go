// Package tutor explains wrong answers from the mistake book. Explanations
// come from the configured LLM provider and are cached per question and
// selected option.
package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/exam"
)

// Origin says where an explanation came from.
type Origin string

const (
	OriginLLM     Origin = "llm"
	OriginCache   Origin = "cache"
	OriginDemo    Origin = "demo"
	OriginOffline Origin = "offline"
)

// Explanation is the four-part walkthrough shown under a mistake.
type Explanation struct {
	Concept  string `json:"concept"`
	Solution string `json:"solution"`
	Shortcut string `json:"shortcut"`
	Tip      string `json:"tip"`

	// Origin is not part of the cached payload.
	Origin Origin `json:"-"`
}

// MistakeView is the input to Explain: the frozen question and what the
// student picked. An empty SelectedOptionID means the question was skipped.
type MistakeView struct {
	Question         exam.Question
	SelectedOptionID string
}

// ViewOf builds a MistakeView from a stored mistake.
func ViewOf(m exam.MistakeRecord) MistakeView {
	return MistakeView{Question: m.Question, SelectedOptionID: m.SelectedOptionID}
}

// Markdown renders the explanation for the terminal.
func (e Explanation) Markdown() string {
	var b strings.Builder
	switch e.Origin {
	case OriginDemo:
		b.WriteString("**[DEMO MODE: no LLM provider configured]**\n\n")
	case OriginOffline:
		b.WriteString("**AI network error**: the tutor could not be reached. Try again later.\n\n")
	}

	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "**%s**\n%s\n\n", title, body)
	}
	section("Concept", e.Concept)
	section("Solution", e.Solution)
	section("Shortcut", e.Shortcut)
	section("Tip", e.Tip)

	return strings.TrimRight(b.String(), "\n")
}
