package core

import (
	"context"
	"sync"

	"github.com/ib-77/xrmfan/pkg/rop"
)

// Engine processes one item. It must be safe to call from several
// locomotives at once.
type Engine[In, Out any] func(ctx context.Context, input In) rop.Result[Out]

// Locomotive pulls items from inputCh until it is closed and pushes each
// outcome, tagged with the item position, to outCh. An item that was taken
// from inputCh is always processed; stopping early is the feeder's job.
func Locomotive[In, Out any](ctx context.Context, inputCh <-chan Indexed[In], outCh chan<- Indexed[rop.Result[Out]],
	engine Engine[In, Out],
	onProcessed func(ctx context.Context, out Indexed[rop.Result[Out]]), wg *sync.WaitGroup) {
	defer wg.Done()

	for in := range inputCh {
		out := Indexed[rop.Result[Out]]{Index: in.Index, Value: engine(ctx, in.Value)}
		if onProcessed != nil {
			onProcessed(ctx, out)
		}
		outCh <- out
	}
}

// Lines starts the given number of locomotives over inputCh. The returned
// channel is closed when all of them have stopped.
func Lines[In, Out any](ctx context.Context, inputCh <-chan Indexed[In],
	engine Engine[In, Out],
	onProcessed func(ctx context.Context, out Indexed[rop.Result[Out]]),
	lines int) <-chan Indexed[rop.Result[Out]] {

	out := make(chan Indexed[rop.Result[Out]])
	wg := &sync.WaitGroup{}

	for range lines {
		wg.Add(1)
		go Locomotive(ctx, inputCh, out, engine, onProcessed, wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
