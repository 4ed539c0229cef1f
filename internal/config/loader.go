// Package config loads environment driven settings for the planner service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the environment driven configuration of the planner.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	BaseURL         string
	SessionSecret   string
	SessionTTL      time.Duration
	FeedHorizonDays int
}

// Load parses configuration from the process environment. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:planner.db",
		BaseURL:         "http://localhost:8080",
		SessionTTL:      24 * time.Hour,
		FeedHorizonDays: 90,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if base := strings.TrimSpace(os.Getenv("PLANNER_BASE_URL")); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}

	if secret := strings.TrimSpace(os.Getenv("PLANNER_SESSION_SECRET")); secret == "" {
		missing = append(missing, "PLANNER_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PLANNER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PLANNER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("PLANNER_FEED_HORIZON_DAYS")); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon <= 0 {
			invalid = append(invalid, "PLANNER_FEED_HORIZON_DAYS")
		} else {
			cfg.FeedHorizonDays = horizon
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
