package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	JobPath     string // .hcl file or a directory of them
	OutDir      string // empty writes next to each job file
	ProfilePath string // empty falls back to PALACEGEN_PROFILE, then the built-in profile
	Stdout      bool   // print the script instead of writing files

	LogFormat string
	LogLevel  string
	// LogW receives log output. Nil sends logs to the app's output writer.
	LogW io.Writer
}

// NewConfig checks cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobPath == "" {
		return nil, errors.New("JobPath is a required configuration field and cannot be empty")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	if cfg.Stdout && cfg.OutDir != "" {
		return nil, errors.New("an output directory cannot be combined with printing to stdout")
	}
	return &cfg, nil
}
