// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Model structure, the in-memory representation of one
// simulation job as it is being edited.
package config

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"
)

// Model is the Draft state of a job configuration.
type Model struct {
	ProjectName string
	MeshPath    string
	// LocalRoot, when set, preserves the mesh path's directory structure
	// below it on the remote host.
	LocalRoot string

	Materials          []Material
	BoundaryConditions []BoundaryCondition
	SolverOptions      map[string]cty.Value
	Resources          Resources

	RemoteRoot  string
	Scheduler   string
	SkipSidecar bool

	// Source is the job file the model was loaded from, if any. It is used
	// only for messages and never rendered.
	Source string
}

// Material assigns material properties to a named mesh region.
type Material struct {
	Region     string
	Attributes []int
	Properties map[string]cty.Value
}

// BoundaryCondition applies a condition of a given type to a declared region.
type BoundaryCondition struct {
	Tag    string
	Type   string
	Params map[string]cty.Value
}

// Resources is the compute request for the HPC job.
type Resources struct {
	Nodes        int
	CoresPerNode int
	WallTime     string
	Memory       string
}

// TotalCores is the number of MPI ranks the request amounts to. It is only
// meaningful for requests that passed validation.
func (r Resources) TotalCores() int {
	return r.Nodes * r.CoresPerNode
}

// Clone returns a deep copy of the model. cty values are immutable and are
// shared.
func (m Model) Clone() Model {
	out := m
	out.SolverOptions = maps.Clone(m.SolverOptions)
	if m.Materials != nil {
		out.Materials = make([]Material, len(m.Materials))
		for i, mat := range m.Materials {
			out.Materials[i] = Material{
				Region:     mat.Region,
				Attributes: slices.Clone(mat.Attributes),
				Properties: maps.Clone(mat.Properties),
			}
		}
	}
	if m.BoundaryConditions != nil {
		out.BoundaryConditions = make([]BoundaryCondition, len(m.BoundaryConditions))
		for i, bc := range m.BoundaryConditions {
			out.BoundaryConditions[i] = BoundaryCondition{
				Tag:    bc.Tag,
				Type:   bc.Type,
				Params: maps.Clone(bc.Params),
			}
		}
	}
	return out
}

// Equal reports whether two models describe the same job. Source is ignored.
func (m Model) Equal(o Model) bool {
	if m.ProjectName != o.ProjectName ||
		m.MeshPath != o.MeshPath ||
		m.LocalRoot != o.LocalRoot ||
		m.RemoteRoot != o.RemoteRoot ||
		m.Scheduler != o.Scheduler ||
		m.SkipSidecar != o.SkipSidecar ||
		m.Resources != o.Resources {
		return false
	}
	if !valuesEqual(m.SolverOptions, o.SolverOptions) {
		return false
	}
	if !slices.EqualFunc(m.Materials, o.Materials, func(a, b Material) bool {
		return a.Region == b.Region &&
			slices.Equal(a.Attributes, b.Attributes) &&
			valuesEqual(a.Properties, b.Properties)
	}) {
		return false
	}
	return slices.EqualFunc(m.BoundaryConditions, o.BoundaryConditions, func(a, b BoundaryCondition) bool {
		return a.Tag == b.Tag && a.Type == b.Type && valuesEqual(a.Params, b.Params)
	})
}

func valuesEqual(a, b map[string]cty.Value) bool {
	return maps.EqualFunc(a, b, func(x, y cty.Value) bool {
		return x.RawEquals(y)
	})
}

// PascalCase turns "loss_tan" into "LossTan", the key form config.json uses.
// Keys that already start with an upper-case letter are kept as written.
func PascalCase(key string) string {
	if key == "" || unicode.IsUpper(rune(key[0])) {
		return key
	}
	var b strings.Builder
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// SortedKeys returns the keys of a value map in lexical order.
func SortedKeys(values map[string]cty.Value) []string {
	var keys []string
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
