package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/palacegen/internal/ctxlog"
	"github.com/vk/palacegen/internal/jobstore"
	"github.com/vk/palacegen/internal/palaceconfig"
	"github.com/vk/palacegen/internal/render"
	"github.com/vk/palacegen/internal/validate"
	"go.uber.org/zap"
)

// Summary counts the outcomes of a Check.
type Summary struct {
	Jobs    int
	Valid   int
	Invalid int
}

// Run renders every job file and writes its artifacts. A failing job does
// not stop the others; all failures are returned joined.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	jobs, err := a.jobFiles(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.renderJob(ctx, job, len(jobs)); err != nil {
			errs = append(errs, err)
		}
	}

	a.logger.Debug("App.Run method finished.", zap.Int("jobs", len(jobs)), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Check validates every job file and reports the outcome without rendering.
func (a *App) Check(ctx context.Context) (Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	jobs, err := a.jobFiles(ctx)
	if err != nil {
		return Summary{}, err
	}

	var (
		sum  = Summary{Jobs: len(jobs)}
		errs []error
	)
	for _, job := range jobs {
		if _, err := a.validateJob(ctx, job); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				sum.Invalid++
			}
			errs = append(errs, err)
			continue
		}
		sum.Valid++
		a.report.Valid(job)
	}
	return sum, errors.Join(errs...)
}

// validateJob loads and validates one job file. An invalid job is reported
// and returned as a *ValidationError.
func (a *App) validateJob(ctx context.Context, job string) (*validate.Validated, error) {
	logger := ctxlog.FromContext(ctx).With(zap.String("job", job))

	model, err := a.loader.Load(ctx, job)
	if err != nil {
		logger.Error("Failed to load job file.", zap.Error(err))
		return nil, err
	}

	res := validate.Validate(model, a.profile)
	if !res.Valid() {
		logger.Warn("Job file is invalid.", zap.Int("errors", len(res.Errors())))
		a.report.Invalid(job, res.Errors())
		return nil, &ValidationError{Job: job, Errors: res.Errors()}
	}
	logger.Debug("Job file is valid.", zap.String("project", model.ProjectName))
	return res.Validated(), nil
}

// renderJob takes one job file from disk to written artifacts. Everything is
// rendered and checked in memory before the first write.
func (a *App) renderJob(ctx context.Context, job string, jobCount int) error {
	logger := ctxlog.FromContext(ctx).With(zap.String("job", job))

	v, err := a.validateJob(ctx, job)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			a.jobs.SetError(job, jobstore.StatusInvalid, err)
		} else {
			a.jobs.SetError(job, jobstore.StatusFailed, err)
		}
		return err
	}

	art := a.engine.Render(v)
	files := []outputFile{{name: render.ScriptName, data: []byte(art.Script), mode: 0o755}}
	if art.HasSidecar {
		if err := palaceconfig.CheckSchema([]byte(art.Sidecar)); err != nil {
			logger.Error("Rendered config.json failed the schema check.", zap.Error(err))
			err = fmt.Errorf("%s: %w", job, err)
			a.jobs.SetError(job, jobstore.StatusFailed, err)
			return err
		}
		files = append(files, outputFile{name: render.SidecarName, data: []byte(art.Sidecar), mode: 0o644})
	}

	if a.config.Stdout {
		if art.HasSidecar {
			logger.Info("Printing the script only; config.json is written when --stdout is not set.")
		}
		_, err := io.WriteString(a.outW, art.Script)
		return err
	}

	dir := a.outputDir(job, v.ProjectName(), jobCount)
	digest := jobstore.Digest(dir, []byte(art.Script), []byte(art.Sidecar))
	if a.jobs.Digest(job) == digest && exists(filepath.Join(dir, render.ScriptName)) {
		logger.Debug("Artifacts unchanged, skipping write.", zap.String("dir", dir))
		a.jobs.SetStatus(job, jobstore.StatusRendered)
		return nil
	}

	written, err := writeFiles(dir, files)
	if err != nil {
		logger.Error("Failed to write artifacts.", zap.String("dir", dir), zap.Error(err))
		err = fmt.Errorf("%s: %w", job, err)
		a.jobs.SetError(job, jobstore.StatusFailed, err)
		return err
	}
	a.jobs.SetDigest(job, digest)
	a.jobs.SetStatus(job, jobstore.StatusRendered)
	logger.Info("Rendered job.",
		zap.String("project", v.ProjectName()),
		zap.String("scheduler", v.Scheduler()),
		zap.Strings("files", written),
	)
	a.report.Written(job, written...)
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
