package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm/logger"
	"lastManStanding/config"
	"lastManStanding/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	log := slog.New(handler)
	slog.SetDefault(log)

	db, err := database.Connect(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("error migrating database", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, args := "serve", os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	a := newApp(cfg, db, log)
	if err := a.run(ctx, command, args); err != nil {
		log.Error("command failed", slog.String("command", command), slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
