package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/store"
)

type stubLedgerRepo struct {
	unlockExists    bool
	unlockExistsErr error
	createErr       error
	incrementErr    error
	property        domain.Property
	propertyErr     error

	created       []domain.Unlock
	createdIDs    []string
	increments    []string
	notifications []domain.Notification
	notifyErr     error
}

func (s *stubLedgerRepo) UnlockExists(ctx context.Context, userID, propertyID string) (bool, error) {
	return s.unlockExists, s.unlockExistsErr
}

func (s *stubLedgerRepo) CreateUnlock(ctx context.Context, id string, unlock domain.Unlock) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.createdIDs = append(s.createdIDs, id)
	s.created = append(s.created, unlock)
	return nil
}

func (s *stubLedgerRepo) IncrementPropertyUnlocks(ctx context.Context, propertyID string) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.increments = append(s.increments, propertyID)
	return nil
}

func (s *stubLedgerRepo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	if s.propertyErr != nil {
		return domain.Property{}, s.propertyErr
	}
	return s.property, nil
}

func (s *stubLedgerRepo) AddNotification(ctx context.Context, n domain.Notification) (string, error) {
	if s.notifyErr != nil {
		return "", s.notifyErr
	}
	s.notifications = append(s.notifications, n)
	return "NOTIF-1", nil
}

type stubVerifier struct {
	err   error
	calls int
}

func (v *stubVerifier) Verify(ctx context.Context, paymentID string, amount float64) error {
	v.calls++
	return v.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUnlockService_Verify(t *testing.T) {
	repo := &stubLedgerRepo{
		property: domain.Property{ID: "PROP-1", OwnerID: "OWNER-1", Title: "2 BHK apartment"},
	}
	verifier := &stubVerifier{}
	svc := NewUnlockService(repo, verifier, testLogger())

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	unlockID, err := svc.Verify(context.Background(), VerifyInput{
		UserID:     "USR-1",
		PropertyID: "PROP-1",
		PaymentID:  "PAY-1",
		Amount:     99,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if unlockID != UnlockID("USR-1", "PROP-1") {
		t.Fatalf("expected deterministic unlock id, got %s", unlockID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 unlock record, got %d", len(repo.created))
	}

	unlock := repo.created[0]
	if unlock.UserID != "USR-1" || unlock.PropertyID != "PROP-1" || unlock.PaymentID != "PAY-1" {
		t.Errorf("unexpected unlock record: %+v", unlock)
	}
	if !unlock.Verified {
		t.Error("expected unlock to be marked verified")
	}
	if !unlock.UnlockedAt.Equal(now) {
		t.Errorf("expected unlockedAt %v, got %v", now, unlock.UnlockedAt)
	}

	if len(repo.increments) != 1 || repo.increments[0] != "PROP-1" {
		t.Errorf("expected one counter increment for PROP-1, got %v", repo.increments)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("expected 1 owner notification, got %d", len(repo.notifications))
	}
	notif := repo.notifications[0]
	if notif.UserID != "OWNER-1" {
		t.Errorf("expected notification for OWNER-1, got %s", notif.UserID)
	}
	if notif.Type != domain.NotificationTypeContactUnlocked {
		t.Errorf("unexpected notification type %s", notif.Type)
	}
	if notif.Data["interestedUserId"] != "USR-1" {
		t.Errorf("expected interestedUserId USR-1, got %q", notif.Data["interestedUserId"])
	}
}

func TestUnlockService_Verify_AlreadyUnlocked(t *testing.T) {
	repo := &stubLedgerRepo{unlockExists: true}
	verifier := &stubVerifier{}
	svc := NewUnlockService(repo, verifier, testLogger())

	_, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-1", PaymentID: "PAY-1", Amount: 99,
	})
	if !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	if verifier.calls != 0 {
		t.Error("payment verifier must not be invoked for a repeat unlock")
	}
	if len(repo.created) != 0 || len(repo.increments) != 0 {
		t.Error("repeat unlock must not produce side effects")
	}
}

func TestUnlockService_Verify_ConcurrentDuplicate(t *testing.T) {
	// The existence check passes, but a concurrent call wins the conditional
	// write before ours lands.
	repo := &stubLedgerRepo{createErr: store.ErrAlreadyExists}
	svc := NewUnlockService(repo, &stubVerifier{}, testLogger())

	_, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-1", PaymentID: "PAY-1", Amount: 99,
	})
	if !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	if len(repo.increments) != 0 {
		t.Error("losing call must not increment the counter")
	}
}

func TestUnlockService_Verify_Unauthenticated(t *testing.T) {
	svc := NewUnlockService(&stubLedgerRepo{}, &stubVerifier{}, testLogger())

	_, err := svc.Verify(context.Background(), VerifyInput{
		PropertyID: "PROP-1", PaymentID: "PAY-1",
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUnlockService_Verify_PaymentRejected(t *testing.T) {
	repo := &stubLedgerRepo{}
	verifier := &stubVerifier{err: errors.New("charge not captured")}
	svc := NewUnlockService(repo, verifier, testLogger())

	_, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-1", PaymentID: "PAY-1", Amount: 99,
	})
	if !errors.Is(err, ErrPaymentVerificationFailed) {
		t.Fatalf("expected ErrPaymentVerificationFailed, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("rejected payment must not create an unlock record")
	}
}

func TestUnlockService_Verify_PropertyGone(t *testing.T) {
	// Listing deleted after payment: the unlock stands, the counter update and
	// owner notification are skipped silently.
	repo := &stubLedgerRepo{
		incrementErr: store.ErrNotFound,
		propertyErr:  store.ErrNotFound,
	}
	svc := NewUnlockService(repo, &stubVerifier{}, testLogger())

	unlockID, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-GONE", PaymentID: "PAY-1", Amount: 99,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if unlockID == "" {
		t.Fatal("expected unlock id")
	}
	if len(repo.notifications) != 0 {
		t.Error("expected no owner notification for a vanished listing")
	}
}

func TestUnlockService_Verify_NotificationFailureDoesNotFailUnlock(t *testing.T) {
	repo := &stubLedgerRepo{
		property:  domain.Property{ID: "PROP-1", OwnerID: "OWNER-1", Title: "2 BHK"},
		notifyErr: errors.New("store unavailable"),
	}
	svc := NewUnlockService(repo, &stubVerifier{}, testLogger())

	if _, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-1", PaymentID: "PAY-1", Amount: 99,
	}); err != nil {
		t.Fatalf("owner notification failure must not fail the unlock, got %v", err)
	}
}

func TestUnlockService_Verify_StoreFailure(t *testing.T) {
	repo := &stubLedgerRepo{unlockExistsErr: errors.New("store down")}
	svc := NewUnlockService(repo, &stubVerifier{}, testLogger())

	_, err := svc.Verify(context.Background(), VerifyInput{
		UserID: "USR-1", PropertyID: "PROP-1", PaymentID: "PAY-1", Amount: 99,
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if CodeFor(err) != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, CodeFor(err))
	}
}

func TestUnlockID_Deterministic(t *testing.T) {
	a := UnlockID("USR-1", "PROP-1")
	b := UnlockID("USR-1", "PROP-1")
	if a != b {
		t.Fatalf("expected identical ids, got %s and %s", a, b)
	}
	if a == UnlockID("USR-2", "PROP-1") {
		t.Fatal("different users must produce different unlock ids")
	}
	if a == UnlockID("USR-1", "PROP-2") {
		t.Fatal("different properties must produce different unlock ids")
	}
}
