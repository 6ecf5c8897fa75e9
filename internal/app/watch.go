package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/palacegen/internal/ctxlog"
	"github.com/vk/palacegen/internal/fsutil"
	"github.com/vk/palacegen/internal/hcl"
	"go.uber.org/zap"
)

// Watch renders every job once and then re-renders a job file whenever it is
// written. Failures are logged and watching continues. It returns when ctx
// is cancelled.
func (a *App) Watch(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	info, err := os.Stat(a.config.JobPath)
	if err != nil {
		return fmt.Errorf("failed to watch job path: %w", err)
	}
	dir, single := a.config.JobPath, ""
	if !info.IsDir() {
		dir, single = filepath.Dir(a.config.JobPath), filepath.Clean(a.config.JobPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Directory jobs are discovered recursively, so every directory the
	// discovery walks is watched too.
	dirs := []string{dir}
	if single == "" {
		if dirs, err = fsutil.Dirs(dir); err != nil {
			return fmt.Errorf("failed to list %s: %w", dir, err)
		}
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	a.logger.Info("Watching job files.", zap.String("dir", dir), zap.Int("dirs", len(dirs)))

	if err := a.Run(ctx); err != nil {
		a.logger.Warn("Initial render failed.", zap.Error(err))
	}
	jobCount := 1
	if single == "" {
		if jobs, err := a.jobFiles(ctx); err == nil {
			jobCount = len(jobs)
		}
	}
	a.readyOnce.Do(func() { close(a.ready) })

	isJob := func(name string) bool {
		if single != "" {
			return filepath.Clean(name) == single
		}
		return filepath.Ext(name) == hcl.Extension
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if single == "" && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					a.watchNewDir(ctx, watcher, event.Name, jobCount)
					continue
				}
			}
			if !isJob(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			a.logger.Debug("Job file changed.", zap.String("job", event.Name), zap.String("op", event.Op.String()))
			if err := a.renderJob(ctx, event.Name, jobCount); err != nil {
				a.logger.Warn("Re-render failed.", zap.String("job", event.Name), zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error.", zap.Error(err))
		}
	}
}

// watchNewDir starts watching a directory created under the job directory
// and renders any job files that landed in it before the watch was added.
func (a *App) watchNewDir(ctx context.Context, watcher *fsnotify.Watcher, dir string, jobCount int) {
	if strings.HasPrefix(filepath.Base(dir), ".") {
		return
	}
	dirs, err := fsutil.Dirs(dir)
	if err != nil {
		a.logger.Warn("Failed to list new directory.", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			a.logger.Warn("Failed to watch new directory.", zap.String("dir", d), zap.Error(err))
			return
		}
	}
	a.logger.Debug("Watching new directory.", zap.String("dir", dir))

	jobs, err := fsutil.FindFilesByExtension(dir, hcl.Extension)
	if err != nil {
		a.logger.Warn("Failed to list new directory.", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, job := range jobs {
		if err := a.renderJob(ctx, job, jobCount); err != nil {
			a.logger.Warn("Re-render failed.", zap.String("job", job), zap.Error(err))
		}
	}
}

// Ready is closed once Watch has rendered every job for the first time and
// is listening for changes.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}
