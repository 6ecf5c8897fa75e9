// This file translates the HCL schema structs of a job file into the
// format-agnostic configuration model.

package hcl

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/pathmap"
	"github.com/vk/palacegen/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateProject converts a project block. Relative local paths are
// resolved against dir, the job file's directory.
func translateProject(p *schema.Project, dir string) (*config.Model, error) {
	m := &config.Model{
		ProjectName: p.Name,
		MeshPath:    localPath(deref(p.Mesh), dir),
		LocalRoot:   localPath(deref(p.LocalRoot), dir),
		RemoteRoot:  deref(p.RemoteRoot),
		Scheduler:   deref(p.Scheduler),
	}
	if p.SkipSidecar != nil {
		m.SkipSidecar = *p.SkipSidecar
	}

	for _, mat := range p.Materials {
		props, err := literalAttributes(mat.Properties)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", mat.Region, err)
		}
		m.Materials = append(m.Materials, config.Material{
			Region:     mat.Region,
			Attributes: mat.Attributes,
			Properties: props,
		})
	}

	for _, b := range p.Boundaries {
		params, err := literalAttributes(b.Params)
		if err != nil {
			return nil, fmt.Errorf("boundary %q: %w", b.Tag, err)
		}
		m.BoundaryConditions = append(m.BoundaryConditions, config.BoundaryCondition{
			Tag:    b.Tag,
			Type:   deref(b.Type),
			Params: params,
		})
	}

	if p.Solver != nil {
		opts, err := literalAttributes(p.Solver.Options)
		if err != nil {
			return nil, fmt.Errorf("solver: %w", err)
		}
		m.SolverOptions = opts
	}

	if r := p.Resources; r != nil {
		m.Resources = config.Resources{
			Nodes:        derefInt(r.Nodes),
			CoresPerNode: derefInt(r.CoresPerNode),
			WallTime:     deref(r.WallTime),
			Memory:       deref(r.Memory),
		}
	}
	return m, nil
}

// literalAttributes evaluates every attribute of a free-form body without
// variables or functions, so only literal values are accepted.
func literalAttributes(body hcl.Body) (map[string]cty.Value, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}

// localPath anchors a relative host path at dir. Windows-style paths are kept
// as written since the path translator understands them on any host.
func localPath(p, dir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if _, windows := pathmap.ToSlash(p); windows {
		return p
	}
	return filepath.Join(dir, p)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
