package domain

import "time"

// Analytics is the daily marketplace snapshot. One document exists per
// calendar day; regenerating a day overwrites the prior snapshot.
type Analytics struct {
	Date             time.Time
	TotalProperties  int
	ActiveProperties int
	TotalUsers       int
	ActiveUsers      int
	DailyUnlocks     int
	DailyRevenue     float64
	GeneratedAt      time.Time
}

// DateKey returns the ISO calendar date the snapshot is keyed by.
func (a Analytics) DateKey() string {
	return a.Date.UTC().Format("2006-01-02")
}
