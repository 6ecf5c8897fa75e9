// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package validate

import (
	"errors"
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"

	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/pathmap"
	"github.com/vk/palacegen/internal/profile"
)

var projectNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// config.json fields the sidecar builder writes itself. Properties and
// parameters must not map onto them.
const (
	sidecarAttributes = "Attributes"
	sidecarIndex      = "Index"
)

func (c *checker) checkRequired() {
	m := c.model
	switch {
	case strings.TrimSpace(m.ProjectName) == "":
		c.add("project_name", ReasonMissing, "", "project name is required")
	case !projectNameRe.MatchString(m.ProjectName):
		c.add("project_name", ReasonOutOfRange, m.ProjectName,
			"project name may only contain letters, digits, '.', '_' and '-', and must start with a letter or digit")
	}
	if strings.TrimSpace(m.MeshPath) == "" {
		c.add("mesh_path", ReasonMissing, "", "mesh file is required")
	}
	if len(m.Materials) == 0 {
		c.add("materials", ReasonMissing, "", "at least one material is required")
	}
	if strings.TrimSpace(m.RemoteRoot) == "" {
		c.add("remote_root", ReasonMissing, "", "remote root directory is required")
	}
}

func (c *checker) checkMeshPath() {
	p := c.model.MeshPath
	if strings.TrimSpace(p) == "" {
		return
	}
	slashed, _ := pathmap.ToSlash(p)
	ext := strings.ToLower(path.Ext(slashed))
	if !c.profile.SupportsMeshExtension(ext) {
		subject := ext
		if subject == "" {
			subject = path.Base(slashed)
		}
		c.add("mesh_path", ReasonUnsupportedOption, subject,
			fmt.Sprintf("mesh format %q is not supported, use one of %s", subject, strings.Join(c.profile.MeshExtensions, ", ")))
	}

	info, err := c.stat(p)
	switch {
	case err != nil:
		c.add("mesh_path", ReasonMissing, p, fmt.Sprintf("mesh file %s does not exist", p))
	case info.IsDir():
		c.add("mesh_path", ReasonOutOfRange, p, fmt.Sprintf("mesh path %s is a directory", p))
	}
}

func (c *checker) checkMaterials() {
	seen := make(map[string]int, len(c.model.Materials))
	for i, mat := range c.model.Materials {
		field := fmt.Sprintf("materials[%d]", i)
		if strings.TrimSpace(mat.Region) == "" {
			c.add(field+".region", ReasonMissing, "", "material region name is required")
		} else if first, dup := seen[mat.Region]; dup {
			c.add(field+".region", ReasonDuplicateName, mat.Region,
				fmt.Sprintf("region %q is already declared by materials[%d]", mat.Region, first))
		} else {
			seen[mat.Region] = i
		}

		for j, attr := range mat.Attributes {
			if attr < 1 {
				c.add(fmt.Sprintf("%s.attributes[%d]", field, j), ReasonOutOfRange, fmt.Sprint(attr),
					"mesh attributes are positive integers")
			}
		}
		for _, key := range config.SortedKeys(mat.Properties) {
			prop := fmt.Sprintf("%s.properties.%s", field, key)
			if config.PascalCase(key) == sidecarAttributes {
				c.add(prop, ReasonOutOfRange, key,
					fmt.Sprintf("property %q collides with the region's mesh attributes", key))
				continue
			}
			if msg := checkNumeric(mat.Properties[key]); msg != "" {
				c.add(prop, ReasonOutOfRange, key, msg)
			}
		}
	}
}

func (c *checker) checkBoundaryConditions() {
	regions := make(map[string]bool, len(c.model.Materials))
	for _, mat := range c.model.Materials {
		regions[mat.Region] = true
	}

	for i, bc := range c.model.BoundaryConditions {
		field := fmt.Sprintf("boundary_conditions[%d]", i)
		switch {
		case strings.TrimSpace(bc.Tag) == "":
			c.add(field+".tag", ReasonMissing, "", "boundary tag is required")
		case !regions[bc.Tag]:
			c.add(field+".tag", ReasonDanglingReference, bc.Tag,
				fmt.Sprintf("boundary references undeclared region %q", bc.Tag))
		}

		switch {
		case strings.TrimSpace(bc.Type) == "":
			c.add(field+".type", ReasonMissing, "", "boundary condition type is required")
		default:
			if _, ok := c.profile.Boundary(bc.Type); !ok {
				c.add(field+".type", ReasonUnsupportedOption, bc.Type,
					fmt.Sprintf("boundary condition type %q is not supported", bc.Type))
			}
		}

		for _, key := range config.SortedKeys(bc.Params) {
			v := bc.Params[key]
			var msg string
			switch sidecarKey := config.PascalCase(key); {
			case key == "attributes":
				msg = checkAttributes(v)
			case key == "index":
				msg = checkScalarOrList(v)
			case sidecarKey == sidecarAttributes, sidecarKey == sidecarIndex:
				msg = fmt.Sprintf("parameter %q collides with the %s field of the boundary, use %q", key, sidecarKey, strings.ToLower(sidecarKey))
			default:
				msg = checkScalarOrList(v)
			}
			if msg != "" {
				c.add(fmt.Sprintf("%s.params.%s", field, key), ReasonOutOfRange, key, msg)
			}
		}
	}
}

func (c *checker) checkSolverOptions() {
	opts := c.model.SolverOptions
	for _, key := range config.SortedKeys(opts) {
		field := "solver_options." + key
		spec, ok := c.profile.Option(key)
		if !ok {
			c.add(field, ReasonUnsupportedOption, key, fmt.Sprintf("solver option %q is not recognised", key))
			continue
		}
		if msg := checkOption(spec, opts[key]); msg != "" {
			c.add(field, ReasonOutOfRange, key, msg)
		}
	}
	for _, key := range c.profile.RequiredOptions() {
		if _, ok := opts[key]; !ok {
			c.add("solver_options."+key, ReasonMissing, key, fmt.Sprintf("solver option %q is required", key))
		}
	}
}

func (c *checker) checkResources() {
	r := c.model.Resources
	limits := c.profile.Limits

	if r.Nodes < 1 {
		c.add("resources.node_count", ReasonOutOfRange, fmt.Sprint(r.Nodes), "node count must be at least 1")
	} else if limits.MaxNodes > 0 && r.Nodes > limits.MaxNodes {
		c.add("resources.node_count", ReasonOutOfRange, fmt.Sprint(r.Nodes),
			fmt.Sprintf("node count exceeds the cluster limit of %d", limits.MaxNodes))
	}
	if r.CoresPerNode < 1 {
		c.add("resources.cores_per_node", ReasonOutOfRange, fmt.Sprint(r.CoresPerNode), "cores per node must be at least 1")
	} else if limits.MaxCoresPerNode > 0 && r.CoresPerNode > limits.MaxCoresPerNode {
		c.add("resources.cores_per_node", ReasonOutOfRange, fmt.Sprint(r.CoresPerNode),
			fmt.Sprintf("cores per node exceed the cluster limit of %d", limits.MaxCoresPerNode))
	}
	if r.Nodes >= 1 && r.CoresPerNode >= 1 {
		// Compare by division so huge requests cannot wrap around.
		switch {
		case r.Nodes > math.MaxInt32/r.CoresPerNode:
			c.add("resources", ReasonOutOfRange, fmt.Sprintf("%dx%d", r.Nodes, r.CoresPerNode),
				fmt.Sprintf("%d nodes x %d cores exceed the largest MPI rank count", r.Nodes, r.CoresPerNode))
		case limits.MaxTotalCores > 0 && r.Nodes > limits.MaxTotalCores/r.CoresPerNode:
			c.add("resources", ReasonOutOfRange, fmt.Sprint(r.TotalCores()),
				fmt.Sprintf("%d nodes x %d cores exceed the cluster limit of %d cores", r.Nodes, r.CoresPerNode, limits.MaxTotalCores))
		}
	}

	if strings.TrimSpace(r.WallTime) == "" {
		c.add("resources.wall_time", ReasonMissing, "", "wall time is required")
	} else if d, err := profile.ParseWallTime(r.WallTime); err != nil {
		c.add("resources.wall_time", ReasonOutOfRange, r.WallTime, err.Error())
	} else if ceiling := limits.WallTime(); ceiling > 0 && d > ceiling {
		c.add("resources.wall_time", ReasonOutOfRange, r.WallTime,
			fmt.Sprintf("wall time exceeds the cluster limit of %s", profile.FormatWallTime(ceiling)))
	} else {
		c.out.wallTime = d
	}

	if strings.TrimSpace(r.Memory) == "" {
		c.add("resources.memory", ReasonMissing, "", "memory request is required")
	} else if mem, err := profile.ParseMemory(r.Memory); err != nil {
		c.add("resources.memory", ReasonOutOfRange, r.Memory, err.Error())
	} else if ceiling := limits.Memory(); ceiling > 0 && mem.Bytes() > ceiling {
		c.add("resources.memory", ReasonOutOfRange, r.Memory,
			fmt.Sprintf("memory exceeds the cluster limit of %s", limits.MaxMemory))
	} else {
		c.out.memory = mem
	}
}

func (c *checker) checkRemoteRoot() {
	root := c.model.RemoteRoot
	if strings.TrimSpace(root) == "" {
		return
	}
	if !pathmap.IsAbsPOSIX(root) {
		c.add("remote_root", ReasonOutOfRange, root, "remote root must be an absolute POSIX path")
		return
	}
	for _, seg := range strings.Split(root, "/") {
		if seg == ".." {
			c.add("remote_root", ReasonOutOfRange, root, "remote root must not contain '..' segments")
			return
		}
	}
	c.out.remoteRoot = path.Clean(root)
}

func (c *checker) checkScheduler() {
	s, ok := c.profile.Scheduler(c.model.Scheduler)
	if !ok {
		c.add("scheduler", ReasonUnsupportedOption, c.model.Scheduler,
			fmt.Sprintf("scheduler %q is not declared, use one of %s", c.model.Scheduler, strings.Join(c.profile.SchedulerNames(), ", ")))
		return
	}
	c.out.scheduler = s.Name
}

// translatePaths maps the mesh path onto the execution host. It only runs
// once the inputs it depends on passed their own checks, so a bad remote root
// is reported once.
func (c *checker) translatePaths() {
	if strings.TrimSpace(c.model.MeshPath) == "" || c.out.remoteRoot == "" {
		return
	}
	remote, err := pathmap.Translate(c.model.MeshPath, c.out.remoteRoot, pathmap.Options{LocalRoot: c.model.LocalRoot})
	if err != nil {
		field := "mesh_path"
		var charErr *pathmap.IllegalPathCharacterError
		if errors.As(err, &charErr) && charErr.Path == c.model.LocalRoot && c.model.LocalRoot != c.model.MeshPath {
			field = "local_root"
		}
		reason := ReasonOutOfRange
		if errors.Is(err, pathmap.ErrIllegalPathCharacter) {
			reason = ReasonIllegalPath
		}
		c.add(field, reason, c.model.MeshPath, err.Error())
		return
	}
	c.out.remoteMeshPath = remote
}
