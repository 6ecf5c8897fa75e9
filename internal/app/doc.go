// Package app contains the core application logic. It wires the job loader,
// validator, renderer, and writer into the render, validate, and watch
// lifecycles, decoupled from any specific entrypoint like a CLI.
package app
