package solo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ib-77/xrmfan/pkg/rop"
)

// ErrPanic wraps a value recovered from a panicking operation.
var ErrPanic = errors.New("operation panicked")

func Succeed[T any](input T) rop.Result[T] {
	return rop.Success(input)
}

func Fail[T any](err error) rop.Result[T] {
	return rop.Fail[T](err)
}

func Cancel[T any](err error) rop.Result[T] {
	return rop.Cancel[T](err)
}

// Try runs onTryExecute and turns its error, or a panic, into a failed
// Result. A context error is reported as a cancellation.
func Try[In any, Out any](ctx context.Context, input In,
	onTryExecute func(ctx context.Context, r In) (Out, error)) (res rop.Result[Out]) {

	defer func() {
		if p := recover(); p != nil {
			res = Fail[Out](fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()

	out, err := onTryExecute(ctx, input)
	if err != nil {
		if rop.IsCancellationError(err) && ctx.Err() != nil {
			return Cancel[Out](err)
		}
		return Fail[Out](err)
	}

	return Succeed(out)
}

func FailOnError[T any](ctx context.Context, input rop.Result[T],
	maybeErr func(ctx context.Context, in T) error) rop.Result[T] {
	if input.IsSuccess() {
		err := maybeErr(ctx, input.Result())
		if err != nil {
			return Fail[T](err)
		}
	}
	return input
}

func Finally[In, Out any](ctx context.Context, input rop.Result[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) Out {

	if input.IsSuccess() {
		return onSuccess(ctx, input.Result())
	} else if input.IsCancel() {
		return onCancel(ctx, input.Err())
	} else {
		return onError(ctx, input.Err())
	}
}
