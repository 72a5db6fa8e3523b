package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/push"
)

// DispatchRepository is the storage contract required by the dispatcher.
type DispatchRepository interface {
	ListActiveUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	AddNotifications(ctx context.Context, notifications []domain.Notification) error
}

// Dispatcher fans a newly created listing out to every active user whose
// preference profile matches it. It has no caller awaiting a result: all
// failures are logged and swallowed here.
type Dispatcher struct {
	repo    DispatchRepository
	pusher  push.Pusher
	logger  *slog.Logger
	workers int
	nowFn   func() time.Time
}

// NewDispatcher constructs a Dispatcher. workers bounds the per-user push
// fan-out concurrency.
func NewDispatcher(repo DispatchRepository, pusher push.Pusher, logger *slog.Logger, workers int) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		pusher:  pusher,
		logger:  logger,
		workers: workers,
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (d *Dispatcher) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		d.nowFn = nowFn
	}
}

// PropertyCreated matches the new listing against all active users, persists
// one notification per match in a single atomic batch, then pushes to each
// matched user's devices. Notifications count as sent once persisted; push
// delivery is best-effort and one user's failure never blocks another's.
func (d *Dispatcher) PropertyCreated(ctx context.Context, propertyID string, property domain.Property) {
	users, err := d.repo.ListActiveUsers(ctx)
	if err != nil {
		d.logger.Error("failed to list active users for property fan-out",
			"propertyId", propertyID, "error", err)
		return
	}

	now := d.nowFn().UTC()
	var notifications []domain.Notification
	for _, user := range users {
		if Matches(user, property) {
			notifications = append(notifications, domain.NewPropertyNotification(user.ID, property, propertyID, now))
		}
	}

	if len(notifications) == 0 {
		d.logger.Debug("no users matched new property", "propertyId", propertyID)
		return
	}

	if err := d.repo.AddNotifications(ctx, notifications); err != nil {
		d.logger.Error("failed to persist property notifications",
			"propertyId", propertyID, "count", len(notifications), "error", err)
		return
	}

	d.pushToUsers(ctx, propertyID, notifications)

	d.logger.Info("sent notifications for new property",
		"propertyId", propertyID, "count", len(notifications))
}

// pushToUsers groups notifications by recipient and dispatches each group's
// device messages independently on the worker pool.
func (d *Dispatcher) pushToUsers(ctx context.Context, propertyID string, notifications []domain.Notification) {
	groups := make(map[string][]domain.Notification)
	var order []string
	for _, n := range notifications {
		if _, seen := groups[n.UserID]; !seen {
			order = append(order, n.UserID)
		}
		groups[n.UserID] = append(groups[n.UserID], n)
	}

	err := runTasks(ctx, d.workers, len(order), func(idx int) error {
		userID := order[idx]
		if err := d.pushToUser(ctx, userID, groups[userID]); err != nil {
			d.logger.Error("push dispatch failed for user",
				"userId", userID, "propertyId", propertyID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		d.logger.Warn("push fan-out completed with failures",
			"propertyId", propertyID, "error", err)
	}
}

// pushToUser sends one message per registered device. The first notification
// supplies title/body/data; the badge carries the group's unread count. A user
// without device tokens is skipped, not an error.
func (d *Dispatcher) pushToUser(ctx context.Context, userID string, notifications []domain.Notification) error {
	user, err := d.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if len(user.FCMTokens) == 0 {
		return nil
	}

	first := notifications[0]
	messages := make([]push.Message, 0, len(user.FCMTokens))
	for _, token := range user.FCMTokens {
		messages = append(messages, push.Message{
			Token: token,
			Title: first.Title,
			Body:  first.Body,
			Data:  first.Data,
			Badge: len(notifications),
		})
	}

	report, err := d.pusher.Send(ctx, messages)
	if err != nil {
		return fmt.Errorf("send push to user %s: %w", userID, err)
	}
	if report.FailureCount > 0 {
		d.logger.Warn("some devices rejected push",
			"userId", userID, "failed", report.FailureCount, "succeeded", report.SuccessCount)
	}
	return nil
}
