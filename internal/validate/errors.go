// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package validate

import "fmt"

// Reason is the machine-readable cause of a FieldError.
type Reason string

const (
	ReasonMissing           Reason = "missing"
	ReasonOutOfRange        Reason = "out_of_range"
	ReasonDanglingReference Reason = "dangling_reference"
	ReasonUnsupportedOption Reason = "unsupported_option"
	ReasonDuplicateName     Reason = "duplicate_name"
	// ReasonIllegalPath reports a path the translator cannot map onto the
	// execution host.
	ReasonIllegalPath Reason = "illegal_path"
)

// FieldError is one problem found in a configuration.
type FieldError struct {
	// Field is the path of the offending field, e.g. "materials[1].region"
	// or "solver_options.tolerance".
	Field  string
	Reason Reason
	// Subject is the offending name or value, when there is one.
	Subject string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Reason)
}
