package app

import (
	"fmt"

	"github.com/vk/palacegen/internal/validate"
)

// ValidationError reports a job file that failed validation. It unwraps to
// the individual field errors.
type ValidationError struct {
	Job    string
	Errors []validate.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", e.Job, e.Errors[0].Error())
	}
	return fmt.Sprintf("%s: %d validation errors", e.Job, len(e.Errors))
}

func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe
	}
	return out
}
