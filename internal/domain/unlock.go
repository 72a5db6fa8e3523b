package domain

import "time"

// Unlock records a paid reveal of a property owner's contact details. At most
// one Unlock exists per (user, property) pair; records are never mutated.
type Unlock struct {
	ID         string
	UserID     string
	PropertyID string
	PaymentID  string
	Amount     float64
	UnlockedAt time.Time
	Verified   bool
}
