package core

import (
	"context"
)

// Indexed pairs a value with its position in the caller's input.
type Indexed[T any] struct {
	Index int
	Value T
}

type FeedHandlers[T any] struct {
	// OnBreak receives the items that were never handed to a worker because
	// ctx was done first.
	OnBreak func(ctx context.Context, rest []Indexed[T])
}

// Feed streams values with their positions. The channel is closed once every
// value was taken or ctx is done.
func Feed[T any](ctx context.Context, handlers FeedHandlers[T], values []T) <-chan Indexed[T] {
	in := make(chan Indexed[T])

	go func() {
		defer close(in)

		for i, v := range values {
			if ctx.Err() != nil {
				breakAt(ctx, handlers, values, i)
				return
			}

			select {
			case in <- Indexed[T]{Index: i, Value: v}:
			case <-ctx.Done():
				breakAt(ctx, handlers, values, i)
				return
			}
		}
	}()

	return in
}

func breakAt[T any](ctx context.Context, handlers FeedHandlers[T], values []T, from int) {
	if handlers.OnBreak == nil {
		return
	}
	rest := make([]Indexed[T], 0, len(values)-from)
	for i := from; i < len(values); i++ {
		rest = append(rest, Indexed[T]{Index: i, Value: values[i]})
	}
	handlers.OnBreak(ctx, rest)
}
