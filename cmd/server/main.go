package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperlocaleyes/backend/core/config"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg app.Config
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", logger.Error(err))
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}
