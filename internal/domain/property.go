package domain

import "time"

// ExpiredReasonAuto is recorded on listings retired by the nightly sweep.
const ExpiredReasonAuto = "auto_expired_30_days"

// Location captures structured address fields for a listing.
type Location struct {
	Address string
	City    string
	Pincode string
}

// Property is a rental listing. It stays active until the owner removes it or
// the expiry sweep retires it; the active->expired transition is one-way.
type Property struct {
	ID            string
	OwnerID       string
	Title         string
	Rent          float64
	PropertyType  string
	Location      Location
	IsActive      bool
	Unlocks       int64
	CreatedAt     time.Time
	ExpiredAt     *time.Time
	ExpiredReason string
}
