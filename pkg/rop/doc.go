// Package rop holds the outcome types shared by the batch dispatcher and its
// callers: Result[T] for a single operation, ItemError for one failed item and
// AggregateError for every failure of one batch.
//
// A batch never fails as a whole because one item failed. Callers receive a
// Result per input position and, when anything went wrong, an AggregateError
// that can be inspected with errors.As or flattened with GetErrors.
package rop
