// Package cli constructs the gitstat command-line interface, wiring the Cobra
// command hierarchy, the configuration loader and structured logging around the
// status and tracking packages. Run is the process entry point.
package cli
