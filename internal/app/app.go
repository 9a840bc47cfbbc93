// Package app holds the long-lived services shared by the CLI commands. It
// is built once per invocation and handed to subcommands through the
// command context.
package app

import (
	"go.uber.org/zap"

	"doubanlink/internal/config"
)

// App bundles the loaded configuration and the shared logger.
type App struct {
	cfg    config.Config
	logger *zap.Logger
}

// New assembles the container.
func New(cfg config.Config, logger *zap.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close flushes buffered log output. Sync errors on stderr are expected on
// some platforms and ignored.
func (a *App) Close() {
	_ = a.logger.Sync()
}
