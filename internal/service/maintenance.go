package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
)

// MaintenanceRepository is the storage contract required by the scheduled
// maintenance jobs.
type MaintenanceRepository interface {
	ListExpirableProperties(ctx context.Context, cutoff time.Time) ([]domain.Property, error)
	ExpireProperties(ctx context.Context, ids []string, expiredAt time.Time) error
	ListAllProperties(ctx context.Context) ([]domain.Property, error)
	ListAllUsers(ctx context.Context) ([]domain.User, error)
	ListUnlocksBetween(ctx context.Context, from, to time.Time) ([]domain.Unlock, error)
	SaveAnalytics(ctx context.Context, a domain.Analytics) error
}

// Maintenance runs the daily listing-expiry sweep and analytics rollup. Both
// jobs are idempotent: re-running the sweep finds nothing to flip, and a
// re-generated snapshot overwrites the day's prior one.
type Maintenance struct {
	repo       MaintenanceRepository
	logger     *slog.Logger
	listingTTL time.Duration
	nowFn      func() time.Time
}

// NewMaintenance constructs the maintenance jobs with the configured listing
// time-to-live.
func NewMaintenance(repo MaintenanceRepository, logger *slog.Logger, listingTTL time.Duration) *Maintenance {
	return &Maintenance{
		repo:       repo,
		logger:     logger,
		listingTTL: listingTTL,
		nowFn:      time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (m *Maintenance) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		m.nowFn = nowFn
	}
}

// ExpireListings retires every active listing older than the TTL in one
// atomic batch. Listings never transition back to active.
func (m *Maintenance) ExpireListings(ctx context.Context) error {
	now := m.nowFn().UTC()
	cutoff := now.Add(-m.listingTTL)

	properties, err := m.repo.ListExpirableProperties(ctx, cutoff)
	if err != nil {
		return internalError("list expirable properties", err)
	}
	if len(properties) == 0 {
		m.logger.Info("no listings eligible for expiry")
		return nil
	}

	ids := make([]string, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}

	if err := m.repo.ExpireProperties(ctx, ids, now); err != nil {
		return internalError("expire properties", err)
	}

	m.logger.Info("expired old listings", "count", len(ids))
	return nil
}

// GenerateAnalytics aggregates the previous full UTC calendar day into a
// snapshot keyed by that day's date.
func (m *Maintenance) GenerateAnalytics(ctx context.Context) error {
	now := m.nowFn().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	properties, err := m.repo.ListAllProperties(ctx)
	if err != nil {
		return internalError("scan properties", err)
	}
	users, err := m.repo.ListAllUsers(ctx)
	if err != nil {
		return internalError("scan users", err)
	}
	unlocks, err := m.repo.ListUnlocksBetween(ctx, yesterday, today)
	if err != nil {
		return internalError("scan unlocks", err)
	}

	snapshot := domain.Analytics{
		Date:            yesterday,
		TotalProperties: len(properties),
		TotalUsers:      len(users),
		DailyUnlocks:    len(unlocks),
		GeneratedAt:     now,
	}
	for _, p := range properties {
		if p.IsActive {
			snapshot.ActiveProperties++
		}
	}
	for _, u := range users {
		if u.IsActive {
			snapshot.ActiveUsers++
		}
	}
	for _, u := range unlocks {
		snapshot.DailyRevenue += u.Amount
	}

	if err := m.repo.SaveAnalytics(ctx, snapshot); err != nil {
		return internalError("save analytics snapshot", err)
	}

	m.logger.Info("generated analytics", "date", snapshot.DateKey(),
		"dailyUnlocks", snapshot.DailyUnlocks, "dailyRevenue", snapshot.DailyRevenue)
	return nil
}
