// Package config defines the format-agnostic Configuration Model of a Palace
// simulation job, along with the Loader interface implemented by concrete job
// file formats.
//
// A `config.Model` is always a Draft: it may be incomplete and it is freely
// mutable. It carries no behaviour beyond cloning and equality. Every check
// lives in the `validate` package, which turns a Draft into an immutable
// `validate.Validated` snapshot, the only value the renderer accepts.
package config
