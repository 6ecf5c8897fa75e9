// Package schema holds the HCL decoding structs of a job file. The structs
// mirror the file layout; internal/hcl translates them into config.Model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// JobFile is the top level of a job file. Anything but project blocks is
// rejected by the decoder.
type JobFile struct {
	Projects []*Project `hcl:"project,block"`
}

// Project represents a `project` block. Every attribute is optional here;
// the validator reports what is missing.
type Project struct {
	Name        string      `hcl:"name,label"`
	Mesh        *string     `hcl:"mesh,optional"`
	LocalRoot   *string     `hcl:"local_root,optional"`
	RemoteRoot  *string     `hcl:"remote_root,optional"`
	Scheduler   *string     `hcl:"scheduler,optional"`
	SkipSidecar *bool       `hcl:"skip_sidecar,optional"`
	Materials   []*Material `hcl:"material,block"`
	Boundaries  []*Boundary `hcl:"boundary,block"`
	Solver      *Solver     `hcl:"solver,block"`
	Resources   *Resources  `hcl:"resources,block"`
}

// Material represents a `material "region" { ... }` block. Attributes other
// than `attributes` are material properties.
type Material struct {
	Region     string   `hcl:"region,label"`
	Attributes []int    `hcl:"attributes,optional"`
	Properties hcl.Body `hcl:",remain"`
}

// Boundary represents a `boundary "tag" { ... }` block. Attributes other
// than `type` are condition parameters.
type Boundary struct {
	Tag    string   `hcl:"tag,label"`
	Type   *string  `hcl:"type,optional"`
	Params hcl.Body `hcl:",remain"`
}

// Solver represents the free-form `solver` block.
type Solver struct {
	Options hcl.Body `hcl:",remain"`
}

// Resources represents the `resources` block.
type Resources struct {
	Nodes        *int    `hcl:"nodes,optional"`
	CoresPerNode *int    `hcl:"cores_per_node,optional"`
	WallTime     *string `hcl:"wall_time,optional"`
	Memory       *string `hcl:"memory,optional"`
}
