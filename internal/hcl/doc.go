// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file parsing and for translating the
// decoded job file into the format-agnostic config.Model.
package hcl
