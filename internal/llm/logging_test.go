package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/mockprep/internal/store"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	fail   error
}

func (r *recordingRepo) AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, data)
	return nil
}

func (r *recordingRepo) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEventRecord, error) {
	return nil, nil
}

func (r *recordingRepo) GetLLMEvent(context.Context, int) (*store.LLMRequestEventRecord, error) {
	return nil, nil
}

func (r *recordingRepo) LLMUsageByPurpose(context.Context) ([]store.LLMUsageStats, error) {
	return nil, nil
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: []byte(`{"concept":"percentages"}`),
		Usage:   Usage{InputTokens: 30, OutputTokens: 12},
	})
	p := WithLogging(mock, repo)

	ctx := WithPurpose(context.Background(), "explain")
	_, err := p.Generate(ctx, Request{
		System:   "Explain briefly.",
		Messages: []Message{{Role: RoleUser, Content: "Why 25%?"}},
		Schema:   &Schema{Name: "logging-any", Definition: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Provider != "mock" || ev.Purpose != "explain" || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.InputTokens != 30 || ev.OutputTokens != 12 {
		t.Fatalf("tokens = %d/%d", ev.InputTokens, ev.OutputTokens)
	}
	if ev.ResponseBody != `{"concept":"percentages"}` {
		t.Fatalf("response body = %q", ev.ResponseBody)
	}
	for _, want := range []string{"[system]", "Why 25%?", "[schema: logging-any]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
}

func TestLoggingProvider_RecordsFailureAfterCancel(t *testing.T) {
	repo := &recordingRepo{}
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("dial tcp: timeout")}), repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.events) != 1 || repo.events[0].Success || repo.events[0].ErrorMessage == "" {
		t.Fatalf("failure not recorded: %+v", repo.events)
	}
}

func TestLoggingProvider_RepoFailureDoesNotFailRequest(t *testing.T) {
	repo := &recordingRepo{fail: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: []byte(`"ok"`)}), repo)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// nil repo is allowed
	p = WithLogging(NewMockProvider(MockResponse{Content: []byte(`"ok"`)}), nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewProviderFromEnv(t *testing.T) {
	for _, k := range []string{"MOCKPREP_LLM_PROVIDER", "MOCKPREP_ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	if _, err := NewProviderFromEnv(context.Background(), nil); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-discovered")
	p, err := NewProviderFromEnv(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ProviderName(p) != "openai" || p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("discovered %s/%s", ProviderName(p), p.ModelID())
	}

	t.Setenv("MOCKPREP_LLM_PROVIDER", "anthropic")
	if _, err := NewProviderFromEnv(context.Background(), nil); err == nil {
		t.Fatal("explicit provider without its key should fail validation")
	}
}
