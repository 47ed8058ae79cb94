// Package errs defines the error values shared by the booking subsystem.
// Sentinels let handlers and callers distinguish failure classes with
// errors.Is; the typed errors carry the extra detail a caller needs to
// recover (the seats that were no longer available, the operation that
// failed on the wire).
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

var (
	// ErrNetwork marks a hold/cancel/recovery/catalog call that failed in
	// transit or was answered with a server error. State is left untouched.
	ErrNetwork = cr.New("backend unavailable")

	// ErrConflict is returned when one or more requested seats are no
	// longer AVAILABLE at hold time. The whole batch is rejected.
	ErrConflict = cr.New("seats no longer available")

	// ErrBusy is returned while another hold/cancel/draft call of the same
	// session is in flight.
	ErrBusy = cr.New("operation already in progress")

	// ErrSelectionFrozen is returned when the selection is mutated while a
	// hold is active.
	ErrSelectionFrozen = cr.New("selection is frozen while seats are held")

	// ErrSeatNotSelectable is returned for inactive, booked, fixing or
	// otherwise unavailable seats.
	ErrSeatNotSelectable = cr.New("seat is not selectable")

	// ErrEmptySelection is returned by a hold request without seats.
	ErrEmptySelection = cr.New("no seats selected")

	// ErrAlreadyHolding is returned by a hold request while a hold is live.
	ErrAlreadyHolding = cr.New("a hold is already active")

	// ErrNotFound is returned when the backend reports a missing resource.
	ErrNotFound = cr.New("not found")

	ErrSessionNotFound = cr.New("booking session not found")
	ErrSessionClosed   = cr.New("booking session closed")
)

// ConflictError reports the seats that made a bulk hold fail.
type ConflictError struct {
	Unavailable []string
}

func (e *ConflictError) Error() string {
	if len(e.Unavailable) == 0 {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), strings.Join(e.Unavailable, ","))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Conflict builds a ConflictError for the given show-time seat ids.
func Conflict(unavailable ...string) error {
	return &ConflictError{Unavailable: unavailable}
}

// NetworkError wraps a transport or server failure of a backend call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrNetwork.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Network wraps err as a NetworkError for op. A nil err stays nil.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...interface{}) error {
	return cr.Newf(format, args...)
}

// Is reports whether any error in err's chain matches target, honouring
// the Is methods of the typed errors above.
func Is(err, target error) bool {
	return cr.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return cr.As(err, target)
}
