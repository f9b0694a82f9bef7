package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/llm"
)

// ErrEmptyGeneration is returned when the provider produced no usable item.
var ErrEmptyGeneration = errors.New("generation produced no valid questions")

// GenerativeConfig tunes batch generation.
type GenerativeConfig struct {
	MaxTokens   int
	Temperature float64

	// MaxPerRequest caps how many questions are asked for in one call.
	MaxPerRequest int
	// MaxPriorQuestions bounds the "already asked" list in the prompt.
	MaxPriorQuestions int
}

// DefaultGenerativeConfig returns recommended defaults.
func DefaultGenerativeConfig() GenerativeConfig {
	return GenerativeConfig{
		MaxTokens:         4096,
		Temperature:       0.7,
		MaxPerRequest:     10,
		MaxPriorQuestions: 15,
	}
}

// Generative produces questions through an llm.Provider. A nil provider
// makes the strategy unavailable, which is a normal condition.
type Generative struct {
	provider   llm.Provider
	cfg        GenerativeConfig
	validators []exam.Validator
}

// NewGenerative creates a generative strategy.
func NewGenerative(provider llm.Provider, cfg GenerativeConfig) *Generative {
	if cfg.MaxPerRequest <= 0 {
		cfg.MaxPerRequest = DefaultGenerativeConfig().MaxPerRequest
	}
	return &Generative{
		provider:   provider,
		cfg:        cfg,
		validators: exam.DefaultValidators(),
	}
}

func (g *Generative) Name() string { return "generative" }

func (g *Generative) Available() bool { return g.provider != nil }

// generatedItem is one raw question from the provider, before validation.
type generatedItem struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Subject      string   `json:"subject"`
	Difficulty   string   `json:"difficulty"`
}

type generatedBatch struct {
	Questions []generatedItem `json:"questions"`
}

// Fetch asks the provider for count questions, splitting into several calls
// when count exceeds MaxPerRequest. Items failing validation are dropped.
// A transport or parse failure on any call fails the whole fetch, so the
// chain falls back for the full batch.
func (g *Generative) Fetch(ctx context.Context, fc FetchContext, count int) ([]exam.Question, error) {
	if g.provider == nil {
		return nil, ErrDeclined
	}
	ctx = llm.WithPurpose(ctx, "question-gen")

	prior := append([]string(nil), fc.PriorTexts...)
	var out []exam.Question

	// Each call asks for its share once. Shortfalls from discarded items
	// are left for the chain to fill from the next strategy.
	for asked := 0; asked < count; {
		n := min(count-asked, g.cfg.MaxPerRequest)
		asked += n

		callFC := fc
		callFC.PriorTexts = prior
		callFC.Offset = fc.Offset + len(out)

		items, err := g.generate(ctx, callFC, n)
		if err != nil {
			return nil, err
		}

		valid := 0
		for _, it := range items {
			if valid == n {
				break
			}
			q := g.toQuestion(it, fc)
			if verr := exam.Validate(q, g.validators...); verr != nil {
				log.Warn().
					Str("test_id", fc.TestID).
					Str("reason", verr.Message).
					Msg("discarding malformed generated question")
				continue
			}
			out = append(out, q)
			prior = append(prior, q.Text)
			valid++
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptyGeneration
	}
	return out, nil
}

func (g *Generative) generate(ctx context.Context, fc FetchContext, n int) ([]generatedItem, error) {
	req := llm.Request{
		System: generationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerationMessage(fc, n, g.cfg.MaxPriorQuestions)},
		},
		Schema:      QuestionBatchSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var batch generatedBatch
	if err := json.Unmarshal(resp.Content, &batch); err != nil {
		return nil, fmt.Errorf("parse generated batch: %w", err)
	}
	return batch.Questions, nil
}

// toQuestion mints ids and maps the correct index onto option flags. An
// out-of-range index yields zero correct options, which validation rejects.
func (g *Generative) toQuestion(it generatedItem, fc FetchContext) exam.Question {
	options := make([]exam.Option, len(it.Options))
	for i, text := range it.Options {
		options[i] = exam.Option{
			ID:        fmt.Sprintf("o%d", i+1),
			Text:      strings.TrimSpace(text),
			IsCorrect: i == it.CorrectIndex,
		}
	}

	return exam.Question{
		ID:            uuid.NewString(),
		Text:          strings.TrimSpace(it.Text),
		Options:       options,
		Subject:       strings.TrimSpace(it.Subject),
		Difficulty:    exam.Difficulty(strings.ToUpper(it.Difficulty)),
		PositiveMarks: fc.PositiveMarks,
		NegativeMarks: fc.NegativeMarks,
		Explanation:   it.Explanation,
		Origin:        "generative",
	}
}
