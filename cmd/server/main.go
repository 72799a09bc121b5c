package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/weekview/weekview/internal/ai"
	"github.com/weekview/weekview/internal/config"
	"github.com/weekview/weekview/internal/domain/reports"
	"github.com/weekview/weekview/internal/domain/reviews"
	"github.com/weekview/weekview/internal/domain/subscribers"
	"github.com/weekview/weekview/internal/domain/usage"
	"github.com/weekview/weekview/internal/infra/alerts"
	"github.com/weekview/weekview/internal/infra/db"
	httpx "github.com/weekview/weekview/internal/infra/http"
	"github.com/weekview/weekview/internal/infra/logger"
	"github.com/weekview/weekview/internal/push"
	"github.com/weekview/weekview/internal/reminder"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	ledger := usage.NewRepo(pool)
	limiter := usage.NewLimiter(ledger, usage.DefaultRules())

	subsRepo := subscribers.NewRepo(pool)
	reviewsRepo := reviews.NewRepo(pool)
	reviewSvc := reviews.NewService(reviewsRepo, limiter)

	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	reportsRepo := reports.NewRepo(pool)
	reportSvc := reports.NewService(reportsRepo, reviewsRepo, aiClient, limiter, cfg.AI.Model)

	api := httpx.NewAPI(log, subsRepo, reviewSvc, reviewsRepo, reportSvc, reportsRepo)
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, api)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	creds := push.Credentials{
		PublicKey:  cfg.Push.PublicKey,
		PrivateKey: cfg.Push.PrivateKey,
		Contact:    cfg.Push.Contact,
	}
	if cfg.Reminder.Enabled {
		startReminder(ctx, log, cfg, subsRepo, creds)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

func startReminder(ctx context.Context, log *slog.Logger, cfg config.Config,
	subsRepo *subscribers.Repo, creds push.Credentials) {

	interval, err := time.ParseDuration(cfg.Reminder.Interval)
	if err != nil || interval <= 0 {
		log.Error("invalid reminder interval", "interval", cfg.Reminder.Interval)
		return
	}

	var alerter reminder.Alerter
	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		tg, err := alerts.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Error("telegram alerter init failed", "err", err)
		} else {
			alerter = tg
		}
	}

	svc := reminder.New(log, subsRepo, push.NewDispatcher(nil, cfg.Push.TTLSeconds), creds,
		reminder.Message{
			Title: cfg.Reminder.Title,
			Body:  cfg.Reminder.Body,
			URL:   cfg.Reminder.URL,
		}, interval, alerter)

	go func() {
		if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("reminder service stopped", "err", err)
		}
	}()
	log.Info("reminder service started", "interval", interval.String())
}
