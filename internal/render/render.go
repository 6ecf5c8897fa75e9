// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package render turns a validated job into the run_palace.sh script and its
// config.json sidecar. Rendering is a pure function of the snapshot and the
// profile: it never touches disk and equal inputs give identical bytes.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/palaceconfig"
	"github.com/vk/palacegen/internal/profile"
	"github.com/vk/palacegen/internal/validate"
)

const (
	// ScriptName is the file name the script is written to.
	ScriptName = "run_palace.sh"
	// SidecarName is the file name the Palace configuration is written to.
	SidecarName = "config.json"
	// DefaultGenerator names the generation source in the metadata block.
	DefaultGenerator = "palacegen"
)

//go:embed script.tmpl
var scriptTemplate string

var scriptTmpl = template.Must(template.New(ScriptName).Option("missingkey=error").Parse(scriptTemplate))

// jobNamespace seeds the name-based job ids.
var jobNamespace = uuid.MustParse("5d3c1f6e-8a4b-4c1e-9f57-0b6a2d9e7c41")

// Artifact is the rendered output of one job.
type Artifact struct {
	Script     string
	Sidecar    string
	HasSidecar bool
}

// Engine renders validated jobs with a fixed profile.
type Engine struct {
	profile   *profile.Profile
	generator string
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator sets the generation source named in the script header.
func WithGenerator(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.generator = name
		}
	}
}

// New returns an engine bound to p.
func New(p *profile.Profile, opts ...Option) *Engine {
	if p == nil {
		panic("render: nil profile")
	}
	e := &Engine{profile: p, generator: DefaultGenerator}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type scriptData struct {
	Project    string
	Generator  string
	JobID      string
	Scheduler  string
	Directives []string
	Setup      []string
	RemoteRoot string
	Mesh       string
	Sidecar    bool
	Steps      []string
	Launch     string
}

// Render produces the artifact for v. Only a sealed snapshot from
// validate.Validate is accepted; anything else is a caller bug and panics.
func (e *Engine) Render(v *validate.Validated) Artifact {
	if !v.Sealed() {
		panic("render: configuration has not been validated")
	}
	sched, ok := e.profile.Scheduler(v.Scheduler())
	if !ok {
		panic(fmt.Sprintf("render: scheduler %q is not in the profile", v.Scheduler()))
	}

	res := v.Resources()
	data := scriptData{
		Project:    v.ProjectName(),
		Generator:  e.generator,
		JobID:      JobID(v.ProjectName(), v.RemoteRoot()).String(),
		Scheduler:  sched.Name,
		Setup:      sched.Setup,
		RemoteRoot: Quote(v.RemoteRoot()),
		Mesh:       Quote(v.RemoteMeshPath()),
		Sidecar:    !v.SkipSidecar(),
		Steps:      e.steps(v),
	}

	values := map[profile.Dimension]string{
		profile.DimJobName:  v.ProjectName(),
		profile.DimNodes:    strconv.Itoa(res.Nodes),
		profile.DimCores:    strconv.Itoa(res.CoresPerNode),
		profile.DimWallTime: profile.FormatWallTime(v.WallTime()),
		profile.DimMemory:   v.Memory().String(),
	}
	for _, dim := range profile.Dimensions {
		line, ok, err := sched.Directive(dim, values[dim])
		if err != nil {
			panic(fmt.Sprintf("render: %v", err))
		}
		if ok {
			data.Directives = append(data.Directives, line)
		}
	}

	launch, err := sched.LaunchCommand(profile.LaunchData{
		Project:      v.ProjectName(),
		Nodes:        res.Nodes,
		CoresPerNode: res.CoresPerNode,
		Tasks:        res.TotalCores(),
		Config:       `"$CONFIG"`,
		Mesh:         `"$MESH"`,
	})
	if err != nil {
		panic(fmt.Sprintf("render: %v", err))
	}
	data.Launch = launch

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("render: execute script template: %v", err))
	}

	art := Artifact{Script: buf.String()}
	if data.Sidecar {
		raw, err := palaceconfig.Marshal(palaceconfig.Build(v, e.profile))
		if err != nil {
			panic(fmt.Sprintf("render: %v", err))
		}
		art.Sidecar = string(raw)
		art.HasSidecar = true
	}
	return art
}

// steps returns one declaration per material, boundary condition, and solver
// option. Materials and boundaries keep model order, options are sorted.
func (e *Engine) steps(v *validate.Validated) []string {
	prec := e.profile.FloatPrecision
	var out []string

	for _, m := range v.Materials() {
		words := []string{"material", Quote(m.Region), "attributes=" + joinInts(m.Attributes)}
		for _, key := range config.SortedKeys(m.Properties) {
			words = append(words, Quote(key+"="+formatValue(m.Properties[key], prec, false)))
		}
		out = append(out, strings.Join(words, " "))
	}
	for _, bc := range v.BoundaryConditions() {
		words := []string{"boundary", Quote(bc.Tag), Quote(bc.Type)}
		for _, key := range config.SortedKeys(bc.Params) {
			words = append(words, Quote(key+"="+formatValue(bc.Params[key], prec, false)))
		}
		out = append(out, strings.Join(words, " "))
	}
	opts := v.SolverOptions()
	for _, key := range config.SortedKeys(opts) {
		out = append(out, "solver "+Quote(key+"="+formatValue(opts[key], prec, e.floatOption(key))))
	}
	return out
}

// floatOption reports whether the profile declares key as floating point.
func (e *Engine) floatOption(key string) bool {
	spec, ok := e.profile.Option(key)
	return ok && (spec.Kind == profile.KindNumber || spec.Kind == profile.KindRange)
}

// JobID derives a stable job identifier from the project name and the remote
// root.
func JobID(project, remoteRoot string) uuid.UUID {
	return uuid.NewSHA1(jobNamespace, []byte(project+"\x00"+remoteRoot))
}

func joinInts(in []int) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
