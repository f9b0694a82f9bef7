package source

import "github.com/abhisek/mockprep/internal/llm"

// QuestionBatchSchema is the structured output requested from the
// generation capability. Option count and correct index are deliberately not
// constrained here: each item is checked by the exam validators so that one
// bad item is discarded without rejecting the whole batch.
var QuestionBatchSchema = &llm.Schema{
	Name:        "mcq-batch",
	Description: "A batch of multiple-choice questions for a competitive exam mock test",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The question stem, plain text",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correct_index": map[string]any{
							"type":        "integer",
							"description": "Zero-based index of the single correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Short worked solution",
						},
						"subject": map[string]any{
							"type":        "string",
							"description": "Subject the question belongs to",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"EASY", "MEDIUM", "HARD"},
						},
					},
					"required":             []any{"text", "options", "correct_index", "explanation", "subject", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
