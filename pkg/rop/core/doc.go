// Package core contains the plumbing behind batch dispatch: the concurrency
// budget (process-wide default plus a per-call override carried by context),
// the indexed feeder channel and the locomotive worker loop. It knows nothing
// about what an item means; package batch builds the dispatch contract on top.
package core
