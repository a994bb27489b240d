package app

import (
	"fmt"
)

// Config holds everything an App instance needs to run. Strategy and
// Display empty mean "resolve from the workflow or the default".
type Config struct {
	WorkflowSource string
	Strategy       string
	Display        string
	Interactive    bool

	StrictOutcomes       bool
	Workers              int
	ForceColor           bool
	InjectYieldFunctions bool
	PluginDirs           []string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// NewConfig validates a prepared configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return &cfg, nil
}
