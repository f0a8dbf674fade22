// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without string matching. For example, ErrStaleStatus
// signals that a guarded status transition lost the race against a
// concurrent writer, while the *NotFound values map directly to 404
// responses at the HTTP boundary.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrReservationNotFound is returned when a reservation lookup
// matches no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrPaymentNotFound is returned when a payment lookup matches no
// row, including lookups by transaction reference.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrPassNotFound is returned when an eGoPass lookup matches no row.
var ErrPassNotFound = errors.New("egopass not found")

// ErrStaleStatus is returned when a compare-and-swap status update
// affected zero rows because the row was no longer in the expected
// state. The orchestrator translates this into an invalid-state
// error so a duplicate payment callback cannot issue a second pass.
var ErrStaleStatus = errors.New("status changed concurrently")
