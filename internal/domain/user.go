package domain

import "time"

// Preferences is a user's stated listing filters. A zero rent bound or an empty
// slice means the dimension is unconstrained.
type Preferences struct {
	MinRent        float64
	MaxRent        float64
	PropertyTypes  []string
	PreferredAreas []string
}

// User is a marketplace account. The notification core only reads users; the
// preference profile and device tokens are maintained by the app surface.
type User struct {
	ID          string
	FullName    string
	Email       string
	IsActive    bool
	Preferences Preferences
	FCMTokens   []string
	CreatedAt   time.Time
}
