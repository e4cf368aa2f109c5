package chain

import (
	"errors"
	"fmt"
)

// Outcome is the result of a step, a wrapped step, or a whole run.
//
// An Outcome carries a message if and only if it is a failure. The zero value
// is a success.
type Outcome struct {
	failed  bool
	message string
}

// Success returns a successful Outcome.
func Success() Outcome {
	return Outcome{}
}

// Failure returns a failed Outcome carrying message.
func Failure(message string) Outcome {
	return Outcome{failed: true, message: message}
}

// Failuref is Failure with fmt.Sprintf formatting.
func Failuref(format string, args ...any) Outcome {
	return Failure(fmt.Sprintf(format, args...))
}

// FromError converts a Go error into an Outcome. A nil error is a success.
func FromError(err error) Outcome {
	if err == nil {
		return Success()
	}
	return Failure(err.Error())
}

// IsSuccess reports whether the Outcome is a success.
func (o Outcome) IsSuccess() bool {
	return !o.failed
}

// Message returns the failure message. ok is false for a success.
func (o Outcome) Message() (msg string, ok bool) {
	return o.message, o.failed
}

// Err returns the failure as an error, or nil for a success.
func (o Outcome) Err() error {
	if !o.failed {
		return nil
	}
	return errors.New(o.message)
}

func (o Outcome) String() string {
	if !o.failed {
		return "success"
	}
	return "failure: " + o.message
}
