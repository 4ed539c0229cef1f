package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/weekly-planner/internal/application"
	"github.com/example/weekly-planner/internal/config"
	httptransport "github.com/example/weekly-planner/internal/http"
	"github.com/example/weekly-planner/internal/ical"
	"github.com/example/weekly-planner/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(sqlite.Config{DSN: cfg.SQLiteDSN})
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	scheduleRepo := sqlite.NewScheduleRepository(pool, now)
	overrideRepo := sqlite.NewOverrideRepository(pool, now)
	userRepo := sqlite.NewUserRepository(pool, now)
	sessionRepo := sqlite.NewSessionRepository(pool)

	scheduleService := application.NewScheduleServiceWithLogger(scheduleRepo, overrideRepo, userRepo, idGenerator, tokenGenerator, now, logger)
	overrideService := application.NewOverrideServiceWithLogger(scheduleRepo, overrideRepo, idGenerator, now, logger)
	agendaService := application.NewAgendaServiceWithLogger(scheduleRepo, overrideRepo, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserServiceWithLogger(userRepo, nil, idGenerator, now, logger)
	feedService := application.NewFeedServiceWithLogger(scheduleRepo, overrideRepo, ical.NewGenerator(cfg.BaseURL, cfg.FeedHorizonDays), logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, logger),
		Users:     httptransport.NewUserHandler(userService, logger),
		Schedules: httptransport.NewScheduleHandler(scheduleService, agendaService, logger),
		Overrides: httptransport.NewOverrideHandler(overrideService, agendaService, logger),
		Agenda:    httptransport.NewAgendaHandler(agendaService, logger),
		Feed:      httptransport.NewFeedHandler(feedService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		public := (strings.EqualFold(r.URL.Path, "/sessions") && r.Method == http.MethodPost) ||
			strings.HasPrefix(r.URL.Path, "/ical/")
		if public {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
