// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/ctxlog"
	"github.com/zhangsongtt/rlop/internal/experiment"
	"github.com/zhangsongtt/rlop/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model

	trackers   map[string]*experiment.Tracker
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and validates
// all configuration up front; a broken configuration is a fatal startup
// error and panics, which the entrypoint recovers into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, reg *registry.Registry) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.GridPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Grid files loaded into config model.", "experiments", len(model.Experiments))

	if err := config.ApplyOverrides(model); err != nil {
		panic(err)
	}
	if appConfig.OutputDir != "" {
		for _, e := range model.Experiments {
			e.OutputDir = appConfig.OutputDir
		}
	}

	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}
	if reg == nil {
		reg = registry.Default()
	}
	if err := reg.Validate(model); err != nil {
		panic(err)
	}
	logger.Debug("Configuration validation passed.")

	trackers := make(map[string]*experiment.Tracker, len(model.Experiments))
	for _, e := range model.Experiments {
		trackers[e.Name] = experiment.NewTracker(e.Repetitions)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		model:    model,
		trackers: trackers,
	}
}

// Model returns the loaded config model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Trackers returns the per-experiment progress trackers. This is primarily
// for testing and for the monitor endpoint.
func (a *App) Trackers() map[string]*experiment.Tracker {
	return a.trackers
}
