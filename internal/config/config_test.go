package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MOCKPREP_PAGE_SIZE", "")
	t.Setenv("MOCKPREP_INITIAL_BATCH", "")
	t.Setenv("MOCKPREP_LOG_LEVEL", "")

	cfg := Load()
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.InitialUnboundedBatch != 20 {
		t.Errorf("InitialUnboundedBatch = %d, want 20", cfg.InitialUnboundedBatch)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.SubmitRetry.MaxAttempts != 3 {
		t.Errorf("SubmitRetry.MaxAttempts = %d, want 3", cfg.SubmitRetry.MaxAttempts)
	}
	if cfg.UserID == "" {
		t.Error("UserID should never be empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MOCKPREP_PAGE_SIZE", "5")
	t.Setenv("MOCKPREP_EXPLANATION_TTL", "90m")
	t.Setenv("MOCKPREP_USER", "asha")

	cfg := Load()
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", cfg.PageSize)
	}
	if cfg.ExplanationTTL != 90*time.Minute {
		t.Errorf("ExplanationTTL = %v, want 90m", cfg.ExplanationTTL)
	}
	if cfg.UserID != "asha" {
		t.Errorf("UserID = %q, want asha", cfg.UserID)
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("MOCKPREP_PAGE_SIZE", "ten")
	if got := getEnvInt("MOCKPREP_PAGE_SIZE", 10); got != 10 {
		t.Errorf("getEnvInt = %d, want fallback 10", got)
	}
}
