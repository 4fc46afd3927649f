// Package scenario runs a named list of steps one after another, timing each
// step and the run as a whole.
//
// The runner does not swallow step errors: the first failing step aborts the
// run and the error comes back wrapped in a StepError. Steps that dispatch
// batches are expected to report their aggregated batch errors themselves
// (see Tolerate) and carry on.
package scenario
