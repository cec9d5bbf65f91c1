package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lunchbuddy/app/internal/database"
	"github.com/lunchbuddy/app/internal/engine"
	"github.com/lunchbuddy/app/internal/handlers"
	"github.com/lunchbuddy/app/internal/notify"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	dbPath := envOr("DB_PATH", "lunchbuddy.db")
	db, err := database.InitDB(dbPath)
	if err != nil {
		slog.Error("database init failed", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var notifier notify.Notifier = notify.Noop{}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg, err := notify.NewTelegram(token)
		if err != nil {
			slog.Error("telegram init failed", "error", err)
			os.Exit(1)
		}
		notifier = tg
		slog.Info("telegram notifications enabled")
	}

	cfg := engine.Config{
		LunchCutoff:  os.Getenv("LUNCH_CUTOFF"),
		DinnerCutoff: os.Getenv("DINNER_CUTOFF"),
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			slog.Error("bad TIMEZONE", "value", tz, "error", err)
			os.Exit(1)
		}
		cfg.Location = loc
	}
	e, err := engine.New(db, notifier, cfg)
	if err != nil {
		slog.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, admin endpoints disabled")
	}

	addr := ":" + envOr("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           handlers.NewRouter(db, e, adminToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("server starting", "addr", addr, "db", dbPath)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
