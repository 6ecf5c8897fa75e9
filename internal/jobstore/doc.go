// Package jobstore keeps the last known outcome of every job file seen by a
// long-running App, so watch mode can tell a real change from a save that
// produced the same artifacts.
package jobstore
