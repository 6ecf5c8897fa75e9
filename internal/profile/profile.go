// Package profile holds the environment tables palacegen renders against:
// recognised solver options, supported mesh formats, boundary types, scheduler
// directive syntax, and cluster limits. These depend on the Palace release and
// on the target cluster, so they are loaded from YAML rather than compiled in.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/template"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvVar names the environment variable that points at a profile file.
const EnvVar = "PALACEGEN_PROFILE"

// SupportedMajor is the profile format major version this build reads.
const SupportedMajor = "v1"

const defaultFloatPrecision = 6

// Profile is a parsed, checked environment table set.
type Profile struct {
	Version          string                   `yaml:"version"`
	PalaceVersion    string                   `yaml:"palace_version"`
	FloatPrecision   int                      `yaml:"float_precision"`
	DefaultScheduler string                   `yaml:"default_scheduler"`
	MeshExtensions   []string                 `yaml:"mesh_extensions"`
	BoundaryTypes    map[string]*BoundaryType `yaml:"boundary_types"`
	SolverOptions    map[string]*OptionSpec   `yaml:"solver_options"`
	Schedulers       map[string]*Scheduler    `yaml:"schedulers"`
	Limits           Limits                   `yaml:"limits"`

	// Source is the file the profile came from, or "builtin".
	Source string `yaml:"-"`
}

// BoundaryShape says how boundary conditions of one type are laid out in
// Palace's config.json.
type BoundaryShape string

const (
	// ShapeObject merges all conditions of the type into one object.
	ShapeObject BoundaryShape = "object"
	// ShapeList emits one object per condition.
	ShapeList BoundaryShape = "list"
	// ShapeIndexed emits one object per condition with a 1-based Index.
	ShapeIndexed BoundaryShape = "indexed"
)

// BoundaryType maps a boundary condition type onto its config.json key.
type BoundaryType struct {
	Name  string        `yaml:"-"`
	Key   string        `yaml:"key"`
	Shape BoundaryShape `yaml:"shape"`
}

// Limits are the cluster ceilings a resource request must respect. Zero or
// empty means undeclared.
type Limits struct {
	MaxNodes        int    `yaml:"max_nodes"`
	MaxCoresPerNode int    `yaml:"max_cores_per_node"`
	MaxTotalCores   int    `yaml:"max_total_cores"`
	MaxWallTime     string `yaml:"max_wall_time"`
	MaxMemory       string `yaml:"max_memory"`

	maxWallTime time.Duration
	maxMemory   int64
}

// WallTime returns the parsed wall time ceiling, zero when undeclared.
func (l Limits) WallTime() time.Duration { return l.maxWallTime }

// Memory returns the parsed memory ceiling in bytes, zero when undeclared.
func (l Limits) Memory() int64 { return l.maxMemory }

// Default returns the built-in profile.
func Default() *Profile {
	p, err := Parse(defaultYAML)
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Errorf("builtin profile: %w", err))
	}
	p.Source = "builtin"
	return p
}

// Load reads and checks a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	p.Source = path
	return p, nil
}

// Resolve returns the profile at path when it is set, then the one named by
// PALACEGEN_PROFILE, then the built-in profile.
func Resolve(path string) (*Profile, error) {
	if path != "" {
		return Load(path)
	}
	if p := os.Getenv(EnvVar); p != "" {
		return Load(p)
	}
	return Default(), nil
}

// Parse decodes and checks a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Raw returns the embedded default profile document.
func Raw() []byte {
	return slices.Clone(defaultYAML)
}

func (p *Profile) check() error {
	var errs []string

	switch {
	case p.Version == "":
		errs = append(errs, "version is required")
	case !semver.IsValid(p.Version):
		errs = append(errs, fmt.Sprintf("version %q is not a semantic version", p.Version))
	case semver.Major(p.Version) != SupportedMajor:
		errs = append(errs, fmt.Sprintf("version %s is not supported, need %s.x.y", p.Version, SupportedMajor))
	}
	if p.PalaceVersion != "" && !semver.IsValid(p.PalaceVersion) {
		errs = append(errs, fmt.Sprintf("palace_version %q is not a semantic version", p.PalaceVersion))
	}

	if p.FloatPrecision == 0 {
		p.FloatPrecision = defaultFloatPrecision
	}
	if p.FloatPrecision < 1 || p.FloatPrecision > 17 {
		errs = append(errs, fmt.Sprintf("float_precision must be in [1, 17], got %d", p.FloatPrecision))
	}

	if len(p.MeshExtensions) == 0 {
		errs = append(errs, "mesh_extensions must not be empty")
	}
	for i, ext := range p.MeshExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Sprintf("mesh_extensions[%d]: %q must start with a dot", i, ext))
		}
		p.MeshExtensions[i] = strings.ToLower(ext)
	}

	for name, bt := range p.BoundaryTypes {
		if bt == nil {
			errs = append(errs, fmt.Sprintf("boundary type %q has no definition", name))
			continue
		}
		bt.Name = name
		if bt.Key == "" {
			errs = append(errs, fmt.Sprintf("boundary type %q: key is required", name))
		}
		switch bt.Shape {
		case ShapeObject, ShapeList, ShapeIndexed:
		case "":
			bt.Shape = ShapeList
		default:
			errs = append(errs, fmt.Sprintf("boundary type %q: unknown shape %q", name, bt.Shape))
		}
	}

	for name, opt := range p.SolverOptions {
		if opt == nil {
			errs = append(errs, fmt.Sprintf("solver option %q has no definition", name))
			continue
		}
		opt.Name = name
		errs = append(errs, opt.check()...)
	}

	if len(p.Schedulers) == 0 {
		errs = append(errs, "at least one scheduler is required")
	}
	for name, s := range p.Schedulers {
		if s == nil {
			errs = append(errs, fmt.Sprintf("scheduler %q has no definition", name))
			continue
		}
		s.Name = name
		errs = append(errs, s.compile()...)
	}
	if p.DefaultScheduler == "" {
		errs = append(errs, "default_scheduler is required")
	} else if _, ok := p.Schedulers[p.DefaultScheduler]; !ok {
		errs = append(errs, fmt.Sprintf("default_scheduler %q is not declared", p.DefaultScheduler))
	}

	errs = append(errs, p.Limits.parse()...)

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (l *Limits) parse() []string {
	var errs []string
	if l.MaxNodes < 0 || l.MaxCoresPerNode < 0 || l.MaxTotalCores < 0 {
		errs = append(errs, "limits must not be negative")
	}
	if l.MaxWallTime != "" {
		d, err := ParseWallTime(l.MaxWallTime)
		if err != nil {
			errs = append(errs, fmt.Sprintf("limits.max_wall_time: %v", err))
		}
		l.maxWallTime = d
	}
	if l.MaxMemory != "" {
		m, err := ParseMemory(l.MaxMemory)
		if err != nil {
			errs = append(errs, fmt.Sprintf("limits.max_memory: %v", err))
		}
		l.maxMemory = m.Bytes()
	}
	return errs
}

// Scheduler resolves a scheduler by name; an empty name selects the default.
func (p *Profile) Scheduler(name string) (*Scheduler, bool) {
	if name == "" {
		name = p.DefaultScheduler
	}
	s, ok := p.Schedulers[name]
	return s, ok
}

// SchedulerNames lists the declared schedulers in lexical order.
func (p *Profile) SchedulerNames() []string {
	names := make([]string, 0, len(p.Schedulers))
	for name := range p.Schedulers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SupportsMeshExtension reports whether ext (with its dot, any case) is a
// recognised mesh format.
func (p *Profile) SupportsMeshExtension(ext string) bool {
	return slices.Contains(p.MeshExtensions, strings.ToLower(ext))
}

// Option returns the definition of a recognised solver option.
func (p *Profile) Option(name string) (*OptionSpec, bool) {
	opt, ok := p.SolverOptions[name]
	return opt, ok
}

// RequiredOptions lists the options a job must set, in lexical order.
func (p *Profile) RequiredOptions() []string {
	var names []string
	for name, opt := range p.SolverOptions {
		if opt.Required {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Boundary returns the definition of a boundary condition type.
func (p *Profile) Boundary(name string) (*BoundaryType, bool) {
	bt, ok := p.BoundaryTypes[name]
	return bt, ok
}

// compileTemplate parses one directive or launch template.
func compileTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(text)
}
