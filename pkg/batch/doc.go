// Package batch dispatches a list of independent remote operations with
// bounded parallelism and collects every failure instead of stopping at the
// first one.
//
// Outcomes are correlated to inputs by position: result i always belongs to
// input i, whatever order the calls complete in. Use Values or Successes to
// drop failed positions.
//
// The concurrency budget must not be changed while a batch is running;
// core.SetDefaultConcurrency refuses the change in that case.
package batch
