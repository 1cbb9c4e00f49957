package app

import (
	"log/slog"

	"platformflow.org/internal/config"
)

// Application holds the dependencies of a run: the validated run description and a logger.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
}

// New returns an Application for cfg. With a nil logger, Run logs to the logger carried by its
// context.
func New(cfg *config.Config, logger *slog.Logger) *Application {
	return &Application{
		Config: cfg,
		Logger: logger,
	}
}
