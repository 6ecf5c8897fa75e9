// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package validate checks a Draft job configuration against an environment
// profile. Every check runs on every call, so one pass reports every problem.
// A configuration with no problems is sealed into a Validated snapshot with
// its paths already translated for the execution host.
package validate

import (
	"io/fs"
	"os"
	"slices"

	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/profile"
)

// Result is the outcome of Validate.
type Result struct {
	errs      []FieldError
	validated *Validated
}

// Valid reports whether no field errors were found.
func (r Result) Valid() bool { return len(r.errs) == 0 }

// Errors returns the field errors in check order.
func (r Result) Errors() []FieldError { return slices.Clone(r.errs) }

// Validated returns the sealed snapshot, or nil when the result is invalid.
func (r Result) Validated() *Validated { return r.validated }

// StatFunc reports file information for a local path.
type StatFunc func(name string) (fs.FileInfo, error)

type options struct {
	stat StatFunc
}

// Option configures Validate.
type Option func(*options)

// WithStat replaces the filesystem lookup used for the mesh existence check.
func WithStat(stat StatFunc) Option {
	return func(o *options) { o.stat = stat }
}

// Validate checks m against p. It never mutates m. A nil model or profile is
// a programmer error and panics.
func Validate(m *config.Model, p *profile.Profile, opts ...Option) Result {
	if m == nil {
		panic("validate: nil configuration")
	}
	if p == nil {
		panic("validate: nil profile")
	}
	o := options{stat: os.Stat}
	for _, opt := range opts {
		opt(&o)
	}

	c := &checker{
		model:   m.Clone(),
		profile: p,
		stat:    o.stat,
		out:     &Validated{},
	}
	c.checkRequired()
	c.checkMeshPath()
	c.checkMaterials()
	c.checkBoundaryConditions()
	c.checkSolverOptions()
	c.checkResources()
	c.checkRemoteRoot()
	c.checkScheduler()
	c.translatePaths()

	if len(c.errs) > 0 {
		return Result{errs: c.errs}
	}
	c.out.model = c.model
	c.out.sealed = true
	return Result{validated: c.out}
}

// checker accumulates field errors and the normalized values of a snapshot.
type checker struct {
	model   config.Model
	profile *profile.Profile
	stat    StatFunc
	errs    []FieldError
	out     *Validated
}

func (c *checker) add(field string, reason Reason, subject, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Reason: reason, Subject: subject, Message: message})
}
