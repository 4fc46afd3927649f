// Package solo contains single-value, synchronous primitives that operate
// on Result[T]. The dispatcher runs every remote call through them.
//
// Highlights:
// - Succeed/Fail/Cancel: construct Result[T]
// - Try: call a function (Out, error) and convert error or panic to failure
// - FailOnError: fail a successful result when a check rejects it
// - Finally: reduce to a concrete value via success/error/cancel handlers
package solo
