package source

import (
	"fmt"
	"strings"
)

const generationSystemPrompt = `You are a senior faculty member setting mock tests for Indian competitive exams (SSC CGL, SBI PO, RRB NTPC, UPSC Prelims).

Rules:
- Write exam-standard multiple-choice questions matching the requested subjects.
- Every question has exactly 4 options and exactly one correct option.
- Distractors must be plausible and reflect common mistakes.
- Questions must be self-contained and unambiguous. Use plain text, no LaTeX.
- Give a short, step-by-step explanation of the correct answer.
- Mix difficulties across EASY, MEDIUM and HARD.
- Do not repeat any question from the "already asked" list.`

// buildGenerationMessage renders the user message for one batch.
func buildGenerationMessage(fc FetchContext, count, maxPrior int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test: %s\n", fc.TestID)
	fmt.Fprintf(&b, "Number of questions: %d\n", count)
	if len(fc.Subjects) > 0 {
		fmt.Fprintf(&b, "Subjects (rotate through these): %s\n", strings.Join(fc.Subjects, ", "))
	}
	if fc.Continuation {
		fmt.Fprintf(&b, "This continues a practice session that has already served %d questions.\n", fc.Offset)
	}

	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(formatPrior(fc.PriorTexts, maxPrior))

	return b.String()
}

// formatPrior lists the most recent prior questions, or "None".
func formatPrior(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
