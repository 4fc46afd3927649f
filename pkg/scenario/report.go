package scenario

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ib-77/xrmfan/pkg/rop"
)

// detailed is implemented by service faults that carry a message meant for
// the user, separate from the wrapped error chain.
type detailed interface {
	Detail() string
}

// Message returns the service fault detail found in err, or err's text.
func Message(err error) string {
	var d detailed
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

// ReportAggregate logs one line per failed item of an aggregated batch error
// and returns how many items failed. Any other error is logged as a single
// line and counts as one.
func ReportAggregate(logger *zap.Logger, err error) int {
	if err == nil {
		return 0
	}
	if logger == nil {
		logger = zap.L()
	}

	ae, ok := rop.AsAggregate(err)
	if !ok {
		logger.Error("ERROR: "+Message(err), zap.Error(err))
		return 1
	}

	for _, ie := range ae.Errors {
		logger.Error("ERROR: "+Message(ie.Err),
			zap.String("op", ae.Op),
			zap.Int("index", ie.Index),
			zap.String("key", ie.Key))
	}
	return len(ae.Errors)
}

// Tolerate reports an aggregated batch error and swallows it so the step can
// finish. Any other error is returned unchanged and will abort the pipeline.
func Tolerate(logger *zap.Logger, err error) error {
	if _, ok := rop.AsAggregate(err); ok {
		ReportAggregate(logger, err)
		return nil
	}
	return err
}
