package tutor

import "github.com/abhisek/mockprep/internal/llm"

// ExplanationSchema is the structured output requested for an explanation.
var ExplanationSchema = &llm.Schema{
	Name:        "mistake-explanation",
	Description: "An exam-oriented explanation of a wrongly answered multiple-choice question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"concept": map[string]any{
				"type":        "string",
				"description": "The underlying theory, 2-3 sentences",
			},
			"solution": map[string]any{
				"type":        "string",
				"description": "Step-by-step calculation or reasoning, numbered steps",
			},
			"shortcut": map[string]any{
				"type":        "string",
				"description": "An exam trick to solve it in seconds, e.g. option elimination or digit sum",
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "A memory aid or mnemonic",
			},
		},
		"required":             []any{"concept", "solution", "shortcut", "tip"},
		"additionalProperties": false,
	},
}
