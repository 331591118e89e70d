package flowcore

import (
	"errors"
	"fmt"

	internalerrors "github.com/flowcore/sdk-go/internal/errors"
)

// terminalError wraps an error that must end the invocation with an
// Output failure (as opposed to a retryable error inside a side
// effect, which never surfaces past the side-effect boundary).
type terminalError struct {
	code uint32
	err  error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// TerminalError marks err so that it ends the invocation instead of
// being retried. An optional code overrides the default (500).
func TerminalError(err error, code ...uint32) error {
	if err == nil {
		return nil
	}
	c := uint32(internalerrors.ErrUnknown)
	if len(code) > 0 {
		c = code[0]
	}
	return &terminalError{code: c, err: err}
}

// IsTerminalError reports whether err (or anything it wraps) was
// marked with TerminalError.
func IsTerminalError(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// ErrorCode extracts the code an error should be reported with. Errors
// not produced by TerminalError get the generic internal code.
func ErrorCode(err error) uint32 {
	var t *terminalError
	if errors.As(err, &t) {
		return t.code
	}
	var coder interface{ FlowcoreErrorCode() uint32 }
	if errors.As(err, &coder) {
		return coder.FlowcoreErrorCode()
	}
	return uint32(internalerrors.ErrUnknown)
}

// ErrKeyNotFound is returned by GetAs when the requested state key is
// absent, so callers can distinguish "no value" from marshalling
// failures.
var ErrKeyNotFound = fmt.Errorf("flowcore: key not found")
