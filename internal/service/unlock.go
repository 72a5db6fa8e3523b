package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/payment"
	"github.com/sundeep8967/zerobroker/internal/store"
)

// LedgerRepository is the storage contract required by the unlock ledger.
type LedgerRepository interface {
	UnlockExists(ctx context.Context, userID, propertyID string) (bool, error)
	CreateUnlock(ctx context.Context, id string, unlock domain.Unlock) error
	IncrementPropertyUnlocks(ctx context.Context, propertyID string) error
	GetProperty(ctx context.Context, id string) (domain.Property, error)
	AddNotification(ctx context.Context, n domain.Notification) (string, error)
}

// UnlockService records verified payments as one-time contact unlocks.
type UnlockService struct {
	repo     LedgerRepository
	verifier payment.Verifier
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewUnlockService constructs an UnlockService.
func NewUnlockService(repo LedgerRepository, verifier payment.Verifier, logger *slog.Logger) *UnlockService {
	return &UnlockService{
		repo:     repo,
		verifier: verifier,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *UnlockService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// VerifyInput carries an authenticated unlock request.
type VerifyInput struct {
	UserID     string
	PropertyID string
	PaymentID  string
	Amount     float64
}

// UnlockID derives the deterministic document id for a (user, property) pair.
// Writing under this id with a conditional create lets the store itself
// enforce the at-most-one-unlock invariant, closing the window a
// query-then-insert sequence would leave open between concurrent calls.
func UnlockID(userID, propertyID string) string {
	sum := sha256.Sum256([]byte(userID + ":" + propertyID))
	return hex.EncodeToString(sum[:])
}

// Verify confirms the charge, records the unlock, bumps the listing's unlock
// counter, and notifies the property owner. It returns the unlock id, or
// ErrAlreadyUnlocked if the pair was unlocked before, ErrPaymentVerificationFailed
// if the charge does not check out, and a generic internal error otherwise.
func (s *UnlockService) Verify(ctx context.Context, in VerifyInput) (string, error) {
	if in.UserID == "" {
		return "", ErrUnauthenticated
	}

	// Fast path: reject a repeat unlock before touching the payment verifier.
	exists, err := s.repo.UnlockExists(ctx, in.UserID, in.PropertyID)
	if err != nil {
		return "", internalError("check existing unlock", err)
	}
	if exists {
		return "", ErrAlreadyUnlocked
	}

	if err := s.verifier.Verify(ctx, in.PaymentID, in.Amount); err != nil {
		return "", errors.Join(ErrPaymentVerificationFailed, err)
	}

	now := s.nowFn().UTC()
	id := UnlockID(in.UserID, in.PropertyID)
	err = s.repo.CreateUnlock(ctx, id, domain.Unlock{
		UserID:     in.UserID,
		PropertyID: in.PropertyID,
		PaymentID:  in.PaymentID,
		Amount:     in.Amount,
		UnlockedAt: now,
		Verified:   true,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent call won the conditional write.
			return "", ErrAlreadyUnlocked
		}
		return "", internalError("create unlock record", err)
	}

	if err := s.repo.IncrementPropertyUnlocks(ctx, in.PropertyID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", internalError("increment unlock counter", err)
		}
		// Listing was deleted between payment and counter update; the unlock
		// itself stands.
		s.logger.Warn("unlocked property no longer exists",
			"propertyId", in.PropertyID, "userId", in.UserID)
	}

	s.notifyOwner(ctx, in.PropertyID, in.UserID, now)

	s.logger.Info("contact unlocked",
		"unlockId", id, "userId", in.UserID, "propertyId", in.PropertyID, "amount", in.Amount)
	return id, nil
}

// notifyOwner tells the listing owner someone paid for their contact details.
// The unlock has already been recorded, so failures here are logged, never
// propagated; a vanished listing skips the notification silently.
func (s *UnlockService) notifyOwner(ctx context.Context, propertyID, interestedUserID string, now time.Time) {
	property, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("failed to load property for owner notification",
				"propertyId", propertyID, "error", err)
		}
		return
	}

	notification := domain.ContactUnlockedNotification(property.OwnerID, property, interestedUserID, now)
	if _, err := s.repo.AddNotification(ctx, notification); err != nil {
		s.logger.Error("failed to notify property owner",
			"propertyId", propertyID, "ownerId", property.OwnerID, "error", err)
	}
}
