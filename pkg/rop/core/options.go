package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

type OptionKey string

const (
	WorkerOptionKey OptionKey = "worker_options"
)

const DefaultMaxWorkers = 4

var (
	// ErrInvalidConcurrency is returned for a concurrency budget below 1.
	ErrInvalidConcurrency = errors.New("concurrency budget must be at least 1")
	// ErrBudgetInUse is returned when the default budget is changed while a
	// batch is running.
	ErrBudgetInUse = errors.New("concurrency budget changed while batches are in flight")
)

type MaxLimitOption struct {
	Value int
}

type WorkerOptions struct {
	MaxCount MaxLimitOption
}

// budget is the process-wide default. mu serializes SetDefaultConcurrency
// against Acquire so the in-flight check cannot race a starting batch.
var budget = struct {
	mu       sync.RWMutex
	value    atomic.Int64
	inFlight atomic.Int64
}{}

func init() {
	budget.value.Store(DefaultMaxWorkers)
}

// DefaultConcurrency returns the process-wide concurrency budget.
func DefaultConcurrency() int {
	return int(budget.value.Load())
}

// SetDefaultConcurrency changes the process-wide budget. It is meant to be
// called at configuration time; while any batch holds the budget the call is
// refused with ErrBudgetInUse.
func SetDefaultConcurrency(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, n)
	}

	budget.mu.Lock()
	defer budget.mu.Unlock()

	if active := budget.inFlight.Load(); active > 0 {
		return fmt.Errorf("%w: %d active", ErrBudgetInUse, active)
	}
	budget.value.Store(int64(n))
	return nil
}

// Acquire marks a batch as in flight until the returned func is called.
func Acquire() (release func()) {
	budget.mu.RLock()
	budget.inFlight.Add(1)
	budget.mu.RUnlock()

	var once sync.Once
	return func() {
		once.Do(func() { budget.inFlight.Add(-1) })
	}
}

// InFlight returns the number of batches currently holding the budget.
func InFlight() int {
	return int(budget.inFlight.Load())
}

// WithConcurrency overrides the budget for batches started with ctx.
func WithConcurrency(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

func ConcurrencyFrom(ctx context.Context, defaultMaxWorkers int) int {
	options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions)
	if ok && options.MaxCount.Value > 0 {
		return options.MaxCount.Value
	}
	return defaultMaxWorkers
}

// Resolve picks the effective limit for one batch: an explicit limit wins,
// then the context override, then the process-wide default.
func Resolve(ctx context.Context, limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, limit)
	case limit > 0:
		return limit, nil
	}
	return ConcurrencyFrom(ctx, DefaultConcurrency()), nil
}
