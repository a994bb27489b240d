package cli

import (
	"context"
	"os"

	"github.com/vk/grana/internal/app"
	"github.com/vk/grana/internal/config"
)

// Resolve merges command-line options with the environment into the app
// configuration. The dotenv file is loaded first, so variables defined
// there take part in the environment pass; explicitly given flags win over
// everything.
func Resolve(ctx context.Context, opts *Options) (*app.Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = os.Getenv("GRANA_ENV_FILE")
	}
	if err := config.LoadEnvFile(ctx, envFile); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	merged := app.Config{
		WorkflowSource:       firstOf(opts.Workflow, cfg.WorkflowFile),
		Strategy:             firstOf(opts.Strategy, cfg.Strategy),
		Display:              firstOf(opts.Display, cfg.Display),
		Interactive:          opts.Interactive,
		LogLevel:             firstOf(opts.LogLevel, cfg.LogLevel),
		LogFormat:            firstOf(opts.LogFormat, cfg.LogFormat),
		LogFile:              firstOf(opts.LogFile, cfg.LogFile),
		InjectYieldFunctions: cfg.ShellInjectYieldFunction,
		StrictOutcomes:       cfg.StrictOutcomesRendering,
		ForceColor:           cfg.ForceColor,
		Workers:              cfg.Workers,
		PluginDirs:           cfg.DefinitionDirs,
	}
	if opts.Explicit("strict-outcomes") {
		merged.StrictOutcomes = opts.StrictOutcomes
	}
	if opts.Explicit("force-color") {
		merged.ForceColor = opts.ForceColor
	}
	if opts.Explicit("workers") {
		merged.Workers = opts.Workers
	}
	if opts.PluginsDir != "" {
		merged.PluginDirs = append([]string{opts.PluginsDir}, merged.PluginDirs...)
	}
	return app.NewConfig(merged)
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
