package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/ctxlog"
	"github.com/vk/palacegen/internal/schema"
	"go.uber.org/zap"
)

// Extension is the file extension of job files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL job loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses one job file into a Draft model. Missing attributes are left
// empty for the validator to report; only syntax problems, non-literal
// expressions, and a wrong number of project blocks are errors here.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading job file.", zap.String("path", path))

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root schema.JobFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	switch n := len(root.Projects); {
	case n == 0:
		return nil, fmt.Errorf("%s: no project block", path)
	case n > 1:
		return nil, fmt.Errorf("%s: %d project blocks, expected exactly one", path, n)
	}

	model, err := translateProject(root.Projects[0], filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	model.Source = path

	logger.Debug("Job file loaded.",
		zap.String("project", model.ProjectName),
		zap.Int("materials", len(model.Materials)),
		zap.Int("boundaries", len(model.BoundaryConditions)),
		zap.Int("solver_options", len(model.SolverOptions)),
	)
	return model, nil
}
