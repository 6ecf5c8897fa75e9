package config

import "context"

// Loader is the interface for a format-specific job file loader.
type Loader interface {
	// Load reads a single job file and translates it into a Draft model.
	// Missing or out-of-range values are not load errors; they are left for
	// the validator to report.
	Load(ctx context.Context, path string) (*Model, error)
}
