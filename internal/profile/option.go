package profile

import (
	"fmt"
	"strings"
)

// Kind is the value type of a solver option.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBool    Kind = "bool"
	KindEnum    Kind = "enum"
	// KindRange is a two-element [start, end] list of numbers with start < end.
	KindRange Kind = "range"
)

// OptionSpec describes one recognised solver option.
type OptionSpec struct {
	Name         string   `yaml:"-"`
	Kind         Kind     `yaml:"kind"`
	Required     bool     `yaml:"required"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	ExclusiveMin bool     `yaml:"exclusive_min"`
	Values       []string `yaml:"values"`
	// Sidecar lists the dotted config.json paths the value is written to.
	// A range option names two paths, one for each bound.
	Sidecar     []string `yaml:"sidecar"`
	Description string   `yaml:"description"`
}

func (o *OptionSpec) check() []string {
	var errs []string
	prefix := fmt.Sprintf("solver option %q", o.Name)

	switch o.Kind {
	case KindString, KindInteger, KindNumber, KindBool:
	case KindEnum:
		if len(o.Values) == 0 {
			errs = append(errs, prefix+": enum needs values")
		}
	case KindRange:
		if len(o.Sidecar) != 0 && len(o.Sidecar) != 2 {
			errs = append(errs, prefix+": range needs two sidecar paths")
		}
	case "":
		errs = append(errs, prefix+": kind is required")
	default:
		errs = append(errs, fmt.Sprintf("%s: unknown kind %q", prefix, o.Kind))
	}

	if o.Kind != KindRange && len(o.Sidecar) > 1 {
		errs = append(errs, prefix+": only range options map to more than one sidecar path")
	}
	for _, p := range o.Sidecar {
		if p == "" || strings.HasPrefix(p, ".") || strings.HasSuffix(p, ".") || strings.Contains(p, "..") {
			errs = append(errs, fmt.Sprintf("%s: malformed sidecar path %q", prefix, p))
		}
	}
	if o.Min != nil && o.Max != nil && *o.Min > *o.Max {
		errs = append(errs, prefix+": min is greater than max")
	}
	return errs
}

// InRange reports whether f satisfies the option's bounds.
func (o *OptionSpec) InRange(f float64) bool {
	if o.Min != nil && (f < *o.Min || (o.ExclusiveMin && f == *o.Min)) {
		return false
	}
	if o.Max != nil && f > *o.Max {
		return false
	}
	return true
}

// BoundsText describes the bounds for error messages, e.g. "> 0" or "[1, 6]".
func (o *OptionSpec) BoundsText() string {
	switch {
	case o.Min != nil && o.Max != nil:
		open := "["
		if o.ExclusiveMin {
			open = "("
		}
		return fmt.Sprintf("%s%g, %g]", open, *o.Min, *o.Max)
	case o.Min != nil && o.ExclusiveMin:
		return fmt.Sprintf("> %g", *o.Min)
	case o.Min != nil:
		return fmt.Sprintf(">= %g", *o.Min)
	case o.Max != nil:
		return fmt.Sprintf("<= %g", *o.Max)
	}
	return "any value"
}
