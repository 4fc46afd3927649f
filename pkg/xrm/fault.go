package xrm

import (
	"errors"
	"fmt"
)

type FaultCode string

const (
	FaultNotFound           FaultCode = "NotFound"
	FaultDuplicate          FaultCode = "DuplicateRecord"
	FaultInvalidArgument    FaultCode = "InvalidArgument"
	FaultInvalidState       FaultCode = "InvalidState"
	FaultUnsupportedRequest FaultCode = "UnsupportedRequest"
)

// Fault is an error reported by the service for one operation.
type Fault struct {
	Code    FaultCode
	Message string
}

func NewFault(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (f *Fault) Error() string {
	return "service fault " + string(f.Code) + ": " + f.Message
}

// Detail is the message meant for the user.
func (f *Fault) Detail() string {
	return f.Message
}

// IsFault reports whether err holds a Fault with the given code.
func IsFault(err error, code FaultCode) bool {
	var f *Fault
	return errors.As(err, &f) && f.Code == code
}
