// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Validated, the immutable snapshot a successful Validate
// call produces. It is the Validated state of the job lifecycle: the renderer
// accepts nothing else, and the only way back to editing is Draft, which hands
// out a fresh copy.

package validate

import (
	"time"

	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/profile"
	"github.com/zclconf/go-cty/cty"
)

// Validated is a checked, path-translated job configuration. Its zero value
// is not sealed and must not be rendered.
type Validated struct {
	model          config.Model
	scheduler      string
	remoteRoot     string
	remoteMeshPath string
	wallTime       time.Duration
	memory         profile.Memory
	sealed         bool
}

// Sealed reports whether v came out of a successful validation.
func (v *Validated) Sealed() bool { return v != nil && v.sealed }

// Draft returns an editable copy of the configuration. Edits never reach v.
func (v *Validated) Draft() config.Model { return v.model.Clone() }

func (v *Validated) ProjectName() string { return v.model.ProjectName }

// LocalMeshPath is the mesh path as authored.
func (v *Validated) LocalMeshPath() string { return v.model.MeshPath }

// RemoteMeshPath is the mesh path on the execution host.
func (v *Validated) RemoteMeshPath() string { return v.remoteMeshPath }

// RemoteRoot is the cleaned working directory on the execution host.
func (v *Validated) RemoteRoot() string { return v.remoteRoot }

// Scheduler is the resolved scheduler name, never empty.
func (v *Validated) Scheduler() string { return v.scheduler }

func (v *Validated) SkipSidecar() bool { return v.model.SkipSidecar }

func (v *Validated) Resources() config.Resources { return v.model.Resources }

// WallTime is the parsed wall-time request.
func (v *Validated) WallTime() time.Duration { return v.wallTime }

// Memory is the parsed per-node memory request.
func (v *Validated) Memory() profile.Memory { return v.memory }

// Materials returns a copy of the materials in declaration order.
func (v *Validated) Materials() []config.Material {
	return v.model.Clone().Materials
}

// BoundaryConditions returns a copy of the boundary conditions in
// declaration order.
func (v *Validated) BoundaryConditions() []config.BoundaryCondition {
	return v.model.Clone().BoundaryConditions
}

// SolverOptions returns a copy of the solver options.
func (v *Validated) SolverOptions() map[string]cty.Value {
	return v.model.Clone().SolverOptions
}

// Material looks up a declared region.
func (v *Validated) Material(region string) (config.Material, bool) {
	for _, m := range v.Materials() {
		if m.Region == region {
			return m, true
		}
	}
	return config.Material{}, false
}
