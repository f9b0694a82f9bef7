package tutor

import (
	"fmt"
	"strings"
)

const explainSystemPrompt = `You are a friendly senior faculty member coaching students for Indian competitive exams (SSC CGL, SBI PO, RRB NTPC, UPSC Prelims).

A student answered a question wrongly. Explain it the way a good classroom teacher would, in simple English with an occasional Hindi phrase where it helps.

Rules:
- Never blame the student.
- Keep each part short; the whole explanation should be readable in under a minute.
- The shortcut must be a genuine exam technique, not a restatement of the solution.
- Use plain text, no LaTeX.`

func buildExplainMessage(v MistakeView) string {
	q := v.Question
	var b strings.Builder

	if q.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", q.Subject)
	}
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	b.WriteString("Options:\n")
	for _, o := range q.Options {
		mark := ""
		if o.IsCorrect {
			mark = " (correct)"
		}
		fmt.Fprintf(&b, "  %s. %s%s\n", o.ID, o.Text, mark)
	}

	if sel, ok := q.Option(v.SelectedOptionID); ok {
		fmt.Fprintf(&b, "Student's answer: %s. %s (wrong)\n", sel.ID, sel.Text)
	} else {
		b.WriteString("Student's answer: skipped\n")
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "Reference solution: %s\n", q.Explanation)
	}
	return b.String()
}
