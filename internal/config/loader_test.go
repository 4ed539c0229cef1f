package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearPlannerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PLANNER_HTTP_PORT",
		"PLANNER_SQLITE_DSN",
		"PLANNER_BASE_URL",
		"PLANNER_SESSION_SECRET",
		"PLANNER_SESSION_TTL",
		"PLANNER_FEED_HORIZON_DAYS",
	} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearPlannerEnv(t)
		t.Setenv("PLANNER_SESSION_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:planner.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("unexpected default session TTL: %v", cfg.SessionTTL)
		}
		if cfg.FeedHorizonDays != 90 {
			t.Fatalf("unexpected default feed horizon: %d", cfg.FeedHorizonDays)
		}
	})

	t.Run("errors when the session secret is missing", func(t *testing.T) {
		clearPlannerEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when required values are missing")
		}
		if !strings.Contains(err.Error(), "PLANNER_SESSION_SECRET") {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		clearPlannerEnv(t)
		t.Setenv("PLANNER_SESSION_SECRET", "super-secret")
		t.Setenv("PLANNER_HTTP_PORT", "9191")
		t.Setenv("PLANNER_SESSION_TTL", "30m")
		t.Setenv("PLANNER_BASE_URL", "https://planner.example.com/")
		t.Setenv("PLANNER_FEED_HORIZON_DAYS", "30")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9191 {
			t.Fatalf("HTTPPort = %d", cfg.HTTPPort)
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
		}
		if cfg.BaseURL != "https://planner.example.com" {
			t.Fatalf("BaseURL = %q, trailing slash should be trimmed", cfg.BaseURL)
		}
		if cfg.FeedHorizonDays != 30 {
			t.Fatalf("FeedHorizonDays = %d", cfg.FeedHorizonDays)
		}
	})

	t.Run("rejects malformed numeric values", func(t *testing.T) {
		clearPlannerEnv(t)
		t.Setenv("PLANNER_SESSION_SECRET", "super-secret")
		t.Setenv("PLANNER_HTTP_PORT", "not-a-port")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for malformed port")
		}
	})
}
