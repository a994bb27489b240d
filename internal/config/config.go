// Package config resolves the runtime configuration from environment
// variables, an optional dotenv file, and command-line flags. Precedence is
// flags over environment over dotenv over defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/vk/grana/internal/ctxlog"
)

// Defaults for knobs not set anywhere.
const (
	DefaultStrategy = "loose"
	DefaultDisplay  = "prefixes"
	DefaultLogLevel = "error"
	DefaultEnvFile  = ".env"
)

// Config is the resolved runtime configuration.
type Config struct {
	LogLevel  string `env:"GRANA_LOG_LEVEL"`
	LogFormat string `env:"GRANA_LOG_FORMAT"`
	LogFile   string `env:"GRANA_LOG_FILE"`
	EnvFile   string `env:"GRANA_ENV_FILE"`

	WorkflowFile string `env:"GRANA_WORKFLOW_FILE"`
	Strategy     string `env:"GRANA_STRATEGY_NAME"`
	Display      string `env:"GRANA_DISPLAY_NAME"`

	ForceColor               bool     `env:"GRANA_FORCE_COLOR"`
	ShellInjectYieldFunction bool     `env:"GRANA_SHELL_INJECT_YIELD_FUNCTION" envDefault:"true"`
	StrictOutcomesRendering  bool     `env:"GRANA_STRICT_OUTCOMES_RENDERING"`
	DefinitionDirs           []string `env:"GRANA_ACTIONS_CLASS_DEFINITIONS_DIRECTORY" envSeparator:","`

	// Workers bounds concurrent action execution; zero means unbounded.
	Workers int `env:"GRANA_WORKERS"`
}

// FromEnv builds a configuration from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: DefaultLogLevel,
		Strategy: DefaultStrategy,
		Display:  DefaultDisplay,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile merges variables from the dotenv file into the process
// environment without overriding already-set variables. While the file is
// interpreted, a HERE variable pointing at its directory is available, so
// entries can reference files relative to the dotenv location. HERE itself
// is only exported when the file declares it.
func LoadEnvFile(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		path = DefaultEnvFile
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("dotenv not found", "path", path)
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	here, hereWasDefined := os.LookupEnv("HERE")
	if !hereWasDefined {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		here = dir
	}
	plain, err := godotenv.UnmarshalBytes(raw)
	if err != nil {
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}
	_, fileDefinesHere := plain["HERE"]

	// Expansion in godotenv only sees variables declared earlier in the
	// same content, so HERE is prepended rather than exported.
	values, err := godotenv.Unmarshal("HERE=" + here + "\n" + string(raw))
	if err != nil {
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}
	if !fileDefinesHere {
		delete(values, "HERE")
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	logger.Info("loaded environment variables", "path", path, "count", len(values))
	return nil
}
