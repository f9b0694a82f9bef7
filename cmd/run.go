package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/app"
	"github.com/abhisek/mockprep/internal/catalog"
	"github.com/abhisek/mockprep/internal/kv"
	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/logger"
	"github.com/abhisek/mockprep/internal/screens"
	"github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/source"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/tutor"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = logger.DefaultLogPath()
	}
	closeLog, err := logger.SetupFile(logPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider := buildProvider(ctx, st.EventRepo())

	src, err := buildSource(provider)
	if err != nil {
		return err
	}

	svc, closeCache := buildTutor(ctx, provider)
	defer closeCache()

	attempts := st.AttemptRepo()
	skipWelcome, _ := cmd.Flags().GetBool("skip-welcome")

	return app.Run(app.Options{
		SkipWelcome: skipWelcome,
		Env: &screens.Env{
			Catalog:  catalog.Default(),
			Attempts: attempts,
			Tutor:    svc,
			UserID:   cfg.UserID,
			Session: session.Deps{
				Source:       src,
				Saver:        attempts,
				PageSize:     cfg.PageSize,
				InitialBatch: cfg.InitialUnboundedBatch,
				SubmitRetry:  session.RetryPolicy(cfg.SubmitRetry),
			},
		},
	})
}

// buildProvider returns the configured LLM provider, or nil. The app works
// without one: questions come from the curated pool and explanations run
// in demo mode.
func buildProvider(ctx context.Context, events store.EventRepo) llm.Provider {
	provider, err := llm.NewProviderFromEnv(ctx, events)
	if err != nil {
		if !errors.Is(err, llm.ErrNoProvider) {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		}
		log.Info().Err(err).Msg("running without LLM provider")
		return nil
	}
	log.Info().Str("provider", llm.ProviderName(provider)).Str("model", provider.ModelID()).Msg("LLM provider ready")
	return provider
}

// buildSource chains generated questions in front of the curated pool.
func buildSource(provider llm.Provider) (*source.Chain, error) {
	pool := source.DefaultPool()
	if cfg.PoolFile != "" {
		p, err := source.LoadPool(cfg.PoolFile)
		if err != nil {
			return nil, fmt.Errorf("load question pool: %w", err)
		}
		pool = p
	}

	curated, err := source.NewCurated(pool)
	if err != nil {
		return nil, fmt.Errorf("build curated source: %w", err)
	}
	return source.NewChain(
		source.NewGenerative(provider, source.DefaultGenerativeConfig()),
		curated,
	), nil
}

// buildTutor uses Redis for the explanation cache when MOCKPREP_REDIS_URL
// is set and reachable, else an in-process cache.
func buildTutor(ctx context.Context, provider llm.Provider) (*tutor.Service, func()) {
	var cache tutor.Cache = tutor.NewMemoryCache()
	closer := func() {}

	if cfg.RedisURL != "" {
		rdb, err := kv.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, caching explanations in memory")
		} else {
			cache = tutor.NewRedisCache(rdb, cfg.ExplanationTTL)
			closer = func() { closeRedis(rdb) }
		}
	}
	return tutor.NewService(provider, cache, tutor.DefaultConfig()), closer
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis")
	}
}
