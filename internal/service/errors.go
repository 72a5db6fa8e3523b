package service

import (
	"errors"
	"fmt"
)

// Failure taxonomy for user-initiated calls. The first three surface to the
// caller with their stable codes; internal failures surface generically while
// the underlying cause is logged for operators.
var (
	ErrUnauthenticated           = errors.New("user must be authenticated")
	ErrAlreadyUnlocked           = errors.New("contact already unlocked")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrInternal                  = errors.New("internal error")
)

// Stable error codes exposed on the wire.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeAlreadyExists   = "already-exists"
	CodePaymentFailed   = "payment-verification-failed"
	CodeInternal        = "internal"
)

// CodeFor maps a service error to its stable wire code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrAlreadyUnlocked):
		return CodeAlreadyExists
	case errors.Is(err, ErrPaymentVerificationFailed):
		return CodePaymentFailed
	default:
		return CodeInternal
	}
}

// internalError wraps an unexpected store or push failure so callers see a
// generic internal error while the cause stays attached for logging.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
