// Package repository implements the backend ports directly on the cinema
// MySQL schema.  It is the adapter used when the console runs next to the
// database (BACKEND_MODE=mysql) instead of behind the REST API.
//
// The sentinel values below let the Store translate row-level outcomes
// into the errs package's error classes.
package repository

import "errors"

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrHoldNotFound is returned when no hold row exists for a show-time seat.
var ErrHoldNotFound = errors.New("hold not found")

// ErrNoUser is returned by calls that act for the current user when the
// context carries no user id.
var ErrNoUser = errors.New("no user in context")
