package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/mockprep/internal/exam"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match
}

// AttemptRepo stores scored attempts and the mistakes made in them.
// Attempts are written once and never updated.
type AttemptRepo interface {
	// SaveAttempt writes the attempt and its mistakes in one transaction.
	SaveAttempt(ctx context.Context, a exam.Attempt, mistakes []exam.MistakeRecord) error

	// LoadAttemptHistory returns the user's attempts, newest first.
	// limit <= 0 returns all of them.
	LoadAttemptHistory(ctx context.Context, userID string, limit int) ([]exam.Attempt, error)

	// GetAttempt returns one attempt or ErrNotFound.
	GetAttempt(ctx context.Context, id string) (exam.Attempt, error)

	// LoadMistakes returns the user's mistakes across attempts, newest first.
	LoadMistakes(ctx context.Context, userID string, limit int) ([]exam.MistakeRecord, error)

	// MistakesForAttempt returns the mistakes of one attempt in question order.
	MistakesForAttempt(ctx context.Context, attemptID string) ([]exam.MistakeRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo appends to and reads the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose sums usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
}
