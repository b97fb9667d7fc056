// Package spoolerr defines the error kinds surfaced to spooler operators,
// per the error handling design: InvalidArgs, UnknownIdentifier,
// StateViolation, Capacity, Launch, and RuntimeFailure.
package spoolerr

import "fmt"

// Kind classifies a user-visible spooler error.
type Kind string

const (
	InvalidArgs       Kind = "InvalidArgs"
	UnknownIdentifier Kind = "UnknownIdentifier"
	StateViolation    Kind = "StateViolation"
	Capacity          Kind = "Capacity"
	Launch            Kind = "Launch"
	RuntimeFailure    Kind = "RuntimeFailure"
)

// Error wraps a Kind with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New builds a spoolerr.Error from a Kind and a format string.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}

// WrongArgCount builds the standardized arg-count mismatch message from
// the external interface spec.
func WrongArgCount(cmd string, given, required int) error {
	return New(InvalidArgs, "Wrong number of args (given: %d, required: %d) for CLI command '%s'", given, required, cmd)
}

// Unrecognized builds the standardized unrecognized-command message.
func Unrecognized(cmd string) error {
	return New(InvalidArgs, "Unrecognized command: %s", cmd)
}
