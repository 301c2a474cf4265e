// Package status classifies many git repositories concurrently and reduces the
// answers into a path ordered report with a process exit code.
//
// Classifier asks the per-repository questions through gitquery, Scheduler runs
// classifications on a bounded goroutine pool and Aggregator filters, sorts and
// scores the results. Service wires the three for one run and CommandBuilder
// exposes them as the check, fetch and pull commands.
package status
