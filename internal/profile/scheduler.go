package profile

import (
	"fmt"
	"strings"
	"text/template"
)

// Directives holds one template per resource dimension. Each template is
// executed with the dimension's rendered value as dot. An empty job name
// template omits the job name line.
type Directives struct {
	JobName  string `yaml:"job_name"`
	Nodes    string `yaml:"nodes"`
	Cores    string `yaml:"cores"`
	WallTime string `yaml:"wall_time"`
	Memory   string `yaml:"memory"`
}

// Scheduler is one script mode: the directive syntax, the environment setup
// lines, and the solver launch command.
type Scheduler struct {
	Name            string     `yaml:"-"`
	Description     string     `yaml:"description"`
	DirectivePrefix string     `yaml:"directive_prefix"`
	Directives      Directives `yaml:"directives"`
	Setup           []string   `yaml:"setup"`
	Launch          string     `yaml:"launch"`

	directives map[Dimension]*template.Template
	launch     *template.Template
}

// Dimension names a resource directive line.
type Dimension string

const (
	DimJobName  Dimension = "job_name"
	DimNodes    Dimension = "nodes"
	DimCores    Dimension = "cores"
	DimWallTime Dimension = "wall_time"
	DimMemory   Dimension = "memory"
)

// Dimensions is the fixed order resource directives are emitted in.
var Dimensions = []Dimension{DimJobName, DimNodes, DimCores, DimWallTime, DimMemory}

// LaunchData is the dot of a launch template.
type LaunchData struct {
	Project      string
	Nodes        int
	CoresPerNode int
	Tasks        int
	Config       string
	Mesh         string
}

func (s *Scheduler) compile() []string {
	var errs []string
	prefix := fmt.Sprintf("scheduler %q", s.Name)

	s.directives = make(map[Dimension]*template.Template)
	sources := map[Dimension]string{
		DimJobName:  s.Directives.JobName,
		DimNodes:    s.Directives.Nodes,
		DimCores:    s.Directives.Cores,
		DimWallTime: s.Directives.WallTime,
		DimMemory:   s.Directives.Memory,
	}
	for _, dim := range Dimensions {
		text := sources[dim]
		if text == "" {
			if dim != DimJobName {
				errs = append(errs, fmt.Sprintf("%s: directive %s is required", prefix, dim))
			}
			continue
		}
		tmpl, err := compileTemplate(s.Name+"."+string(dim), text)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: directive %s: %v", prefix, dim, err))
			continue
		}
		s.directives[dim] = tmpl
	}

	if strings.TrimSpace(s.Launch) == "" {
		errs = append(errs, prefix+": launch is required")
	} else {
		tmpl, err := compileTemplate(s.Name+".launch", s.Launch)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: launch: %v", prefix, err))
		} else {
			s.launch = tmpl
			// Field references are only resolved at execution time.
			if _, err := s.LaunchCommand(LaunchData{Project: "probe", Nodes: 1, CoresPerNode: 1, Tasks: 1}); err != nil {
				errs = append(errs, fmt.Sprintf("%s: launch: %v", prefix, err))
			}
		}
	}
	if strings.ContainsAny(s.DirectivePrefix, "\n\r") {
		errs = append(errs, prefix+": directive_prefix must be a single line")
	}
	return errs
}

// Directive renders the directive line for one dimension. The boolean is
// false when the scheduler does not emit that dimension.
func (s *Scheduler) Directive(dim Dimension, value string) (string, bool, error) {
	tmpl, ok := s.directives[dim]
	if !ok {
		return "", false, nil
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, value); err != nil {
		return "", false, fmt.Errorf("scheduler %s directive %s: %w", s.Name, dim, err)
	}
	if s.DirectivePrefix == "" {
		return b.String(), true, nil
	}
	return s.DirectivePrefix + " " + b.String(), true, nil
}

// LaunchCommand renders the solver invocation line.
func (s *Scheduler) LaunchCommand(data LaunchData) (string, error) {
	if s.launch == nil {
		return "", fmt.Errorf("scheduler %s has no compiled launch template", s.Name)
	}
	var b strings.Builder
	if err := s.launch.Execute(&b, data); err != nil {
		return "", fmt.Errorf("scheduler %s launch: %w", s.Name, err)
	}
	return b.String(), nil
}
