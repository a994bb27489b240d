package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/action/bundled"
	"github.com/vk/grana/internal/ctxlog"
	"github.com/vk/grana/internal/plugin"
)

// ErrExecutionFailed reports that the run finished with at least one failed
// action.
var ErrExecutionFailed = errors.New("some actions failed")

// ErrCancelled reports that the run was interrupted before completion.
var ErrCancelled = errors.New("run cancelled")

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	closeLog func()
	registry *action.Registry
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(ctx context.Context, outW, errW io.Writer, cfg *Config) (*App, error) {
	logger, closeLog, err := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile, errW)
	if err != nil {
		return nil, err
	}
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("logger configured")

	registry := action.NewRegistry()
	if err := bundled.Register(registry, bundled.Options{
		InjectServiceFunctions: cfg.InjectYieldFunctions,
	}); err != nil {
		closeLog()
		return nil, err
	}
	for _, dir := range cfg.PluginDirs {
		if err := plugin.LoadDir(ctx, registry, dir); err != nil {
			closeLog()
			return nil, err
		}
	}
	logger.Debug("runner kinds registered", "kinds", registry.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		closeLog: closeLog,
		registry: registry,
		config:   cfg,
	}, nil
}

// Close releases resources held by the app, such as an open log file.
func (a *App) Close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *action.Registry {
	return a.registry
}
