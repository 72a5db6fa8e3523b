// Package payment defines the charge-verification capability. The gateway's
// own protocol (signature checks, webhooks) lives outside this backend; the
// ledger only needs a yes/no answer for a payment id and amount.
package payment

import (
	"context"
	"errors"
)

// Verifier confirms that a payment id corresponds to a successful charge of
// the given amount.
type Verifier interface {
	Verify(ctx context.Context, paymentID string, amount float64) error
}

// Verification failures surfaced by implementations.
var (
	ErrMissingPaymentID = errors.New("payment ID is required")
	ErrInvalidAmount    = errors.New("amount must be non-negative")
)

// StaticVerifier accepts every well-formed charge. It stands in for the
// gateway integration point until server-side verification is wired up.
type StaticVerifier struct{}

// Verify implements the Verifier interface.
func (StaticVerifier) Verify(_ context.Context, paymentID string, amount float64) error {
	if paymentID == "" {
		return ErrMissingPaymentID
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
