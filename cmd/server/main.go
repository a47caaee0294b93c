package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/odaliasengell/neurolog-app-sub000/internal/app"
	"github.com/odaliasengell/neurolog-app-sub000/internal/config"
	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/jobs"
	"github.com/odaliasengell/neurolog-app-sub000/internal/logging"
	"github.com/odaliasengell/neurolog-app-sub000/internal/notify"
	"github.com/odaliasengell/neurolog-app-sub000/internal/observability"
)

const release = "neurolog-server"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Sugar.Warnw("sentry init failed", "err", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db connect failed", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(ctx, database, "migrations"); err != nil {
		lg.Sugar.Fatalw("migrations failed", "err", err)
	}
	if v, err := db.MigrationVersion(ctx, database); err == nil {
		lg.Sugar.Infow("migrations applied", "version", v)
	}

	notifier, err := notify.New(cfg.BotToken, lg.Sugar)
	if err != nil {
		lg.Sugar.Fatalw("telegram init failed", "err", err)
	}
	if !notifier.Enabled() {
		lg.Sugar.Info("telegram notifications disabled")
	}

	runner := jobs.New(ctx)
	runner.Every(cfg.StatsEvery, "stats", jobs.StatsJob(database))

	app.StartHTTP(ctx, cfg, database, notifier, lg.Sugar)
	lg.Sugar.Infow("server started", "addr", cfg.HTTPAddr, "env", cfg.Env)

	<-ctx.Done()
	lg.Sugar.Info("shutting down")
}
