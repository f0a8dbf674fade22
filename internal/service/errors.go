// Package service implements the travel pass workflow: reservation
// intake, payment, pass issuance and document rendering. Handlers stay
// thin and translate the typed errors defined here into HTTP responses.
package service

import "fmt"

// ValidationError reports the first field of a submission that failed
// validation. Checks run in a fixed order and stop at the first
// failure, so clients always see a single field at a time.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StateError reports an operation attempted against a reservation that
// is no longer in the state the operation requires. A duplicate
// payment callback surfaces as one of these.
type StateError struct {
	Actual   string
	Expected string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid state %q, expected %q", e.Actual, e.Expected)
}

// PaymentError reports a failure inside the payment leg: an unknown
// transaction reference, a gateway refusal, or a gateway transport
// failure.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed: %s: %v", e.Reason, e.Err)
	}
	return "payment failed: " + e.Reason
}

func (e *PaymentError) Unwrap() error { return e.Err }

// RenderError reports a failure while producing a pass artifact, the
// QR image or the PDF document.
type RenderError struct {
	Artifact string // "qr" or "pdf"
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
