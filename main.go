package main

import (
	"context"

	"go.uber.org/zap"

	"localboard/internal/cli"
	"localboard/internal/config"
	"localboard/internal/state"
	"localboard/internal/ui"
)

func main() {
	cli.Execute(runApp)
}

func runApp(_ context.Context, cfg *config.Config, store *state.Store, logger *zap.Logger, watchPath string) error {
	logger.Info("starting LocalBoard", zap.String("storage", cfg.Storage.Backend), zap.String("slot", cfg.Storage.Slot))
	return ui.RunApp(ui.Options{
		Config:    cfg,
		Store:     store,
		Logger:    logger,
		WatchPath: watchPath,
	})
}
