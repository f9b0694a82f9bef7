package tutor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/abhisek/mockprep/internal/llm"
)

type Config struct {
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{MaxTokens: 1024, Temperature: 0.7}
}

// Service produces explanations for mistakes.
type Service struct {
	provider llm.Provider
	cache    Cache
	cfg      Config
}

// NewService creates a tutor. A nil provider puts it in demo mode; a nil
// cache gets a MemoryCache.
func NewService(provider llm.Provider, cache Cache, cfg Config) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{provider: provider, cache: cache, cfg: cfg}
}

// Explain returns the explanation for v. Provider failures are not
// returned as errors: the student gets an offline notice and nothing is
// cached, so the next call tries again. The error is non-nil only when ctx
// is done.
func (s *Service) Explain(ctx context.Context, v MistakeView) (Explanation, error) {
	key := CacheKey(v)

	cached, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("question_id", v.Question.ID).Msg("explanation cache read failed")
	case ok:
		cached.Origin = OriginCache
		return cached, nil
	}

	if s.provider == nil {
		return demoExplanation(v), nil
	}

	e, err := s.generate(ctx, v)
	if err != nil {
		if ctx.Err() != nil {
			return Explanation{}, ctx.Err()
		}
		log.Warn().Err(err).Str("question_id", v.Question.ID).Msg("tutor explanation failed")
		return offlineExplanation(v), nil
	}

	if err := s.cache.Set(ctx, key, e); err != nil {
		log.Warn().Err(err).Str("question_id", v.Question.ID).Msg("explanation cache write failed")
	}
	return e, nil
}

func (s *Service) generate(ctx context.Context, v MistakeView) (Explanation, error) {
	ctx = llm.WithPurpose(ctx, "explain")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      explainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildExplainMessage(v)}},
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Explanation{}, fmt.Errorf("explanation generation: %w", err)
	}

	var e Explanation
	if err := json.Unmarshal(resp.Content, &e); err != nil {
		return Explanation{}, fmt.Errorf("parse explanation: %w", err)
	}
	e.Origin = OriginLLM
	return e, nil
}

func demoExplanation(v MistakeView) Explanation {
	subject := v.Question.Subject
	if subject == "" {
		subject = "this topic"
	}
	e := Explanation{
		Concept:  fmt.Sprintf("The question tests a core idea from %s.", subject),
		Solution: "Apply the basic formula step by step and compare with each option.",
		Shortcut: "Use option elimination: strike out answers that break an obvious constraint first.",
		Tip:      "Configure an LLM provider (e.g. MOCKPREP_LLM_PROVIDER and its API key) for real explanations.",
		Origin:   OriginDemo,
	}
	if v.Question.Explanation != "" {
		e.Solution = v.Question.Explanation
	}
	return e
}

func offlineExplanation(v MistakeView) Explanation {
	e := Explanation{Origin: OriginOffline}
	if correct, ok := v.Question.CorrectOption(); ok {
		e.Solution = fmt.Sprintf("The correct answer is %s. %s", correct.ID, correct.Text)
	}
	if v.Question.Explanation != "" {
		e.Solution += "\n" + v.Question.Explanation
	}
	return e
}
