package batch

import (
	"github.com/ib-77/xrmfan/pkg/rop"
	"github.com/ib-77/xrmfan/pkg/rop/core"
)

// Values returns the successful values, keeping their relative order.
func Values[T any](results []rop.Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.HasResult() {
			out = append(out, r.Result())
		}
	}
	return out
}

// Successes returns the successful values with their input positions.
func Successes[T any](results []rop.Result[T]) []core.Indexed[T] {
	out := make([]core.Indexed[T], 0, len(results))
	for i, r := range results {
		if r.HasResult() {
			out = append(out, core.Indexed[T]{Index: i, Value: r.Result()})
		}
	}
	return out
}

// ValuesOr returns one value per position: the result when the item
// succeeded, fallback[i] otherwise. results and fallback must have the same
// length.
func ValuesOr[T any](results []rop.Result[T], fallback []T) []T {
	out := make([]T, len(results))
	for i, r := range results {
		if r.HasResult() {
			out[i] = r.Result()
		} else {
			out[i] = fallback[i]
		}
	}
	return out
}
