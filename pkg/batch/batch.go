package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ib-77/xrmfan/pkg/rop"
	"github.com/ib-77/xrmfan/pkg/rop/core"
	"github.com/ib-77/xrmfan/pkg/rop/solo"
)

var (
	// ErrNilCall is returned when no remote call is supplied.
	ErrNilCall = errors.New("batch: nil remote call")
	// ErrNoMatches marks a query that matched nothing under RejectEmpty.
	ErrNoMatches = errors.New("query returned no matches")
	// ErrNotProcessed marks a position that no worker reported on.
	ErrNotProcessed = errors.New("batch: item not processed")
)

// Call performs one remote operation. It is invoked from several goroutines
// at once and must be safe for that.
type Call[In, Out any] func(ctx context.Context, op In) (Out, error)

// Action is a remote operation without a result payload.
type Action[In any] func(ctx context.Context, op In) error

// EmptyPolicy decides whether a query matching nothing is a success.
type EmptyPolicy int

const (
	AllowEmpty EmptyPolicy = iota
	RejectEmpty
)

func (p EmptyPolicy) String() string {
	if p == RejectEmpty {
		return "reject-empty"
	}
	return "allow-empty"
}

// Execute runs call for every element of ops with at most limit calls in
// flight. The returned slice has one Result per input, at the input's
// position; failed positions hold a failed Result. Every item is attempted
// even when earlier ones fail, and the error is nil or an
// *rop.AggregateError listing each failed position.
//
// A limit of 0 uses the budget from core.WithConcurrency on ctx, or the
// process-wide default. A negative limit attempts nothing.
func Execute[In, Out any](ctx context.Context, op string, ops []In, call Call[In, Out], limit int) ([]rop.Result[Out], error) {
	if call == nil {
		return nil, ErrNilCall
	}
	engine := func(ctx context.Context, in In) rop.Result[Out] {
		return solo.Try[In, Out](ctx, in, call)
	}
	return run[In, Out](ctx, op, ops, engine, limit)
}

// Apply is Execute for operations that only succeed or fail, such as
// updates and deletes.
func Apply[In any](ctx context.Context, op string, ops []In, action Action[In], limit int) error {
	if action == nil {
		return ErrNilCall
	}
	_, err := Execute[In, struct{}](ctx, op, ops, func(ctx context.Context, in In) (struct{}, error) {
		return struct{}{}, action(ctx, in)
	}, limit)
	return err
}

// Query is Execute for reads. Under RejectEmpty a result for which isEmpty
// reports true is recorded as an item failure wrapping ErrNoMatches.
func Query[Q, R any](ctx context.Context, op string, queries []Q, call Call[Q, R],
	isEmpty func(R) bool, policy EmptyPolicy, limit int) ([]rop.Result[R], error) {
	if call == nil {
		return nil, ErrNilCall
	}
	engine := func(ctx context.Context, q Q) rop.Result[R] {
		res := solo.Try[Q, R](ctx, q, call)
		if policy != RejectEmpty || isEmpty == nil {
			return res
		}
		return solo.FailOnError(ctx, res, func(_ context.Context, r R) error {
			if isEmpty(r) {
				return ErrNoMatches
			}
			return nil
		})
	}
	return run[Q, R](ctx, op, queries, engine, limit)
}

func run[In, Out any](ctx context.Context, op string, ops []In, engine core.Engine[In, Out], limit int) ([]rop.Result[Out], error) {
	workers, err := core.Resolve(ctx, limit)
	if err != nil {
		return nil, err
	}

	results := make([]rop.Result[Out], len(ops))
	if len(ops) == 0 {
		return results, nil
	}

	release := core.Acquire()
	defer release()

	if workers > len(ops) {
		workers = len(ops)
	}
	start := time.Now()

	// OnBreak and the collector below write disjoint positions; the feeder
	// closes its channel after OnBreak returns, so both are done before
	// results is read.
	in := core.Feed[In](ctx, core.FeedHandlers[In]{
		OnBreak: func(ctx context.Context, rest []core.Indexed[In]) {
			for _, r := range rest {
				results[r.Index] = solo.Cancel[Out](fmt.Errorf("not attempted: %w", ctx.Err()))
			}
		},
	}, ops)

	for out := range core.Lines[In, Out](ctx, in, engine, nil, workers) {
		results[out.Index] = out.Value
	}

	itemErrs := make([]*rop.ItemError, 0)
	for i, r := range results {
		if r.IsEmpty() {
			// no worker and no break handler reported this position
			r = solo.Fail[Out](fmt.Errorf("%w: position %d", ErrNotProcessed, i))
			results[i] = r
		}

		failed := func(_ context.Context, err error) *rop.ItemError {
			zap.L().Debug("batch item failed",
				zap.String("op", op),
				zap.Int("index", i),
				zap.Bool("cancelled", r.IsCancel()),
				zap.Stringer("result_id", r.Id()),
				zap.Time("at", r.CreatedAt()),
				zap.Error(err))
			return rop.NewItemError(i, ops[i], err)
		}
		ie := solo.Finally(ctx, r,
			func(context.Context, Out) *rop.ItemError { return nil },
			failed, failed)
		if ie != nil {
			itemErrs = append(itemErrs, ie)
		}
	}

	zap.L().Debug("batch completed",
		zap.String("op", op),
		zap.Int("items", len(ops)),
		zap.Int("workers", workers),
		zap.Int("failed", len(itemErrs)),
		zap.Duration("elapsed", time.Since(start)))

	return results, rop.NewAggregateError(op, len(ops), itemErrs)
}
