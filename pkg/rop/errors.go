package rop

import (
	"errors"
	"fmt"
	"strings"
)

// ItemError is the failure of a single item inside a batch.
type ItemError struct {
	// Index is the 0-based position of the item in the batch input
	Index int
	// Key is the descriptor identity, empty when the descriptor is not Keyed
	Key string
	Err error
}

func (e *ItemError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("item %d (%s): %v", e.Index, e.Key, e.Err)
	}
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError builds an ItemError, taking the key from op when it is Keyed.
func NewItemError(index int, op any, err error) *ItemError {
	ie := &ItemError{Index: index, Err: err}
	if k, ok := op.(Keyed); ok && !IsNil(op) {
		ie.Key = k.BatchKey()
	}
	return ie
}

// AggregateError collects every item failure of one batch. It is never
// surfaced empty: NewAggregateError returns nil when there is nothing to
// report.
type AggregateError struct {
	Op     string
	Total  int
	Errors []*ItemError
}

func NewAggregateError(op string, total int, errs []*ItemError) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Op: op, Total: total, Errors: errs}
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%d of %d items failed", len(e.Errors), e.Total)
	for i, ie := range e.Errors {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Errors)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(ie.Error())
	}
	return b.String()
}

// Unwrap exposes every item error to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, ie := range e.Errors {
		out[i] = ie
	}
	return out
}

// Indexes returns the failing input positions in ascending order.
func (e *AggregateError) Indexes() []int {
	out := make([]int, len(e.Errors))
	for i, ie := range e.Errors {
		out[i] = ie.Index
	}
	return out
}

// AsAggregate unwraps err to an AggregateError if it holds one.
func AsAggregate(err error) (*AggregateError, bool) {
	var ae *AggregateError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
