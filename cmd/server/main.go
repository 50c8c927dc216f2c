// Package main is the entry point for the news aggregation server.
//
// Its job is deliberately small: read configuration from the environment,
// create the logger, and hand everything to internal/server. All actual
// logic lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/news-aggregator/internal/newsapi"
	"github.com/sakif/news-aggregator/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := server.Config{
		Port:          envInt("PORT", 8080),
		DBPath:        envString("DB_PATH", "data/news.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		IngestWorkers: envInt("INGEST_WORKERS", 4),
		IngestTimeout: envDuration("INGEST_TIMEOUT", 15*time.Second),
	}

	news := newsapi.DefaultConfig()
	news.APIKey = os.Getenv("NEWS_API_KEY")
	news.BaseURL = envString("NEWS_API_URL", news.BaseURL)
	news.Language = envString("NEWS_LANGUAGE", news.Language)
	news.PageSize = envInt("NEWS_PAGE_SIZE", news.PageSize)
	cfg.News = news

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required — generate one with: openssl rand -hex 32")
		os.Exit(1)
	}
	if news.APIKey == "" {
		// The server still starts; POST /news/fetch answers 503 until the
		// key is configured.
		logger.Warn("NEWS_API_KEY not set — ingestion is disabled")
	}

	// Ensure the database directory exists before sqlite opens the file.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
