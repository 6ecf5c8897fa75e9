package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/ctxlog"
	"github.com/vk/palacegen/internal/fsutil"
	"github.com/vk/palacegen/internal/hcl"
	"github.com/vk/palacegen/internal/jobstore"
	"github.com/vk/palacegen/internal/profile"
	"github.com/vk/palacegen/internal/render"
	"github.com/vk/palacegen/internal/report"
	"go.uber.org/zap"
)

// Version is stamped into the script header. Release builds override it
// with -ldflags.
var Version = "dev"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *zap.Logger
	config  *Config
	loader  config.Loader
	profile *profile.Profile
	engine  *render.Engine
	report  *report.Printer
	jobs    *jobstore.Store

	ready     chan struct{}
	readyOnce sync.Once
}

// NewApp is the constructor for the main application. It resolves the
// environment profile and returns an App with its own isolated logger.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logW := cfg.LogW
	if logW == nil {
		logW = outW
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	prof, err := profile.Resolve(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	logger.Debug("Profile resolved.",
		zap.String("source", prof.Source),
		zap.String("version", prof.Version),
		zap.String("palace_version", prof.PalaceVersion),
	)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		profile: prof,
		engine:  render.New(prof, render.WithGenerator("palacegen "+Version)),
		report:  report.New(outW),
		jobs:    jobstore.New(),
		ready:   make(chan struct{}),
	}, nil
}

// JobStatus returns the outcome of the latest attempt at rendering job.
func (a *App) JobStatus(job string) jobstore.Status {
	return a.jobs.Status(job)
}

// Profile returns the resolved environment profile.
func (a *App) Profile() *profile.Profile {
	return a.profile
}

// Logger returns the application's logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// jobFiles expands the configured job path.
func (a *App) jobFiles(ctx context.Context) ([]string, error) {
	files, err := fsutil.JobFiles(a.config.JobPath, hcl.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to find job files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s job files found in %s", hcl.Extension, a.config.JobPath)
	}
	ctxlog.FromContext(ctx).Debug("Discovered job files.", zap.Int("count", len(files)))
	return files, nil
}

// outputDir picks where a job's files go. A shared output directory gets one
// sub-directory per project when several jobs are rendered together.
func (a *App) outputDir(job, project string, jobCount int) string {
	switch {
	case a.config.OutDir == "":
		return filepath.Dir(job)
	case jobCount > 1:
		return filepath.Join(a.config.OutDir, project)
	default:
		return a.config.OutDir
	}
}
