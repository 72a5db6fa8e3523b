package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/store"
)

func TestRepository_UnlockRoundTrip(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)
	ctx := context.Background()

	exists, err := repo.UnlockExists(ctx, "USR-1", "PROP-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if exists {
		t.Fatal("expected no unlock before creation")
	}

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	unlock := domain.Unlock{
		UserID:     "USR-1",
		PropertyID: "PROP-1",
		PaymentID:  "PAY-1",
		Amount:     149,
		UnlockedAt: now,
		Verified:   true,
	}
	if err := repo.CreateUnlock(ctx, "UNLOCK-1", unlock); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	exists, err = repo.UnlockExists(ctx, "USR-1", "PROP-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !exists {
		t.Fatal("expected unlock to be found after creation")
	}

	// Same user, different listing: no match.
	exists, _ = repo.UnlockExists(ctx, "USR-1", "PROP-2")
	if exists {
		t.Fatal("unexpected unlock for a different property")
	}

	err = repo.CreateUnlock(ctx, "UNLOCK-1", unlock)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate id, got %v", err)
	}

	unlocks, err := repo.ListUnlocksBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(unlocks) != 1 {
		t.Fatalf("expected 1 unlock in window, got %d", len(unlocks))
	}
	if got := unlocks[0]; got.PaymentID != "PAY-1" || got.Amount != 149 || !got.Verified {
		t.Errorf("unexpected decoded unlock: %+v", got)
	}
}

func TestRepository_IncrementPropertyUnlocks(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)
	ctx := context.Background()

	mem.Seed(store.CollectionProperties, "PROP-1", map[string]any{
		"ownerId": "OWNER-1",
		"unlocks": int64(2),
	})

	if err := repo.IncrementPropertyUnlocks(ctx, "PROP-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	doc, _ := mem.Doc(store.CollectionProperties, "PROP-1")
	if doc["unlocks"] != int64(3) {
		t.Errorf("expected counter 3, got %v", doc["unlocks"])
	}

	err := repo.IncrementPropertyUnlocks(ctx, "PROP-MISSING")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing listing, got %v", err)
	}
}

func TestRepository_ListActiveUsers(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)

	mem.Seed(store.CollectionUsers, "USR-1", map[string]any{
		"fullName": "Aarav Sharma",
		"isActive": true,
		"preferences": map[string]any{
			"minRent":        8000.0,
			"maxRent":        15000.0,
			"propertyTypes":  []any{"apartment"},
			"preferredAreas": []any{"Indiranagar"},
		},
		"fcmTokens": []any{"token-1"},
	})
	mem.Seed(store.CollectionUsers, "USR-2", map[string]any{
		"fullName": "Meera Iyer",
		"isActive": false,
	})

	users, err := repo.ListActiveUsers(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 active user, got %d", len(users))
	}

	user := users[0]
	if user.ID != "USR-1" {
		t.Errorf("expected USR-1, got %s", user.ID)
	}
	if user.Preferences.MaxRent != 15000 {
		t.Errorf("expected maxRent 15000, got %v", user.Preferences.MaxRent)
	}
	if len(user.Preferences.PropertyTypes) != 1 || user.Preferences.PropertyTypes[0] != "apartment" {
		t.Errorf("unexpected property types %v", user.Preferences.PropertyTypes)
	}
	if len(user.FCMTokens) != 1 || user.FCMTokens[0] != "token-1" {
		t.Errorf("unexpected tokens %v", user.FCMTokens)
	}
}

func TestRepository_DecodeToleratesSparseDocuments(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)

	// Documents written by older app versions may lack most fields.
	mem.Seed(store.CollectionUsers, "USR-BARE", map[string]any{"isActive": true})
	mem.Seed(store.CollectionProperties, "PROP-BARE", map[string]any{"title": "bare"})

	users, err := repo.ListActiveUsers(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 1 || users[0].Preferences.MaxRent != 0 {
		t.Fatalf("expected bare user with zero preferences, got %+v", users)
	}

	property, err := repo.GetProperty(context.Background(), "PROP-BARE")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if property.Location.Address != "" || property.Rent != 0 || property.ExpiredAt != nil {
		t.Errorf("unexpected decoded property: %+v", property)
	}
}

func TestRepository_AddNotificationsBatch(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	notifications := []domain.Notification{
		domain.NewPropertyNotification("USR-1", domain.Property{Title: "2 BHK", Location: domain.Location{Address: "HSR Layout"}}, "PROP-1", now),
		domain.NewPropertyNotification("USR-2", domain.Property{Title: "2 BHK", Location: domain.Location{Address: "HSR Layout"}}, "PROP-1", now),
	}

	if err := repo.AddNotifications(context.Background(), notifications); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n := mem.Len(store.CollectionNotifications); n != 2 {
		t.Fatalf("expected 2 notification documents, got %d", n)
	}

	// An empty batch skips the store entirely.
	if err := repo.AddNotifications(context.Background(), nil); err != nil {
		t.Fatalf("expected empty batch to be a no-op, got %v", err)
	}
	if n := mem.Len(store.CollectionNotifications); n != 2 {
		t.Fatalf("expected count unchanged after empty batch, got %d", n)
	}
}

func TestRepository_ExpireProperties(t *testing.T) {
	mem := store.NewMemoryClient()
	repo := New(mem)
	now := time.Date(2026, 8, 30, 2, 0, 0, 0, time.UTC)

	mem.Seed(store.CollectionProperties, "PROP-1", map[string]any{
		"title":     "old listing",
		"isActive":  true,
		"createdAt": now.AddDate(0, 0, -40),
		"unlocks":   int64(5),
	})

	if err := repo.ExpireProperties(context.Background(), []string{"PROP-1"}, now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	doc, _ := mem.Doc(store.CollectionProperties, "PROP-1")
	if doc["isActive"] != false {
		t.Error("expected listing to be inactive")
	}
	if doc["expiredReason"] != domain.ExpiredReasonAuto {
		t.Errorf("unexpected reason %v", doc["expiredReason"])
	}
	// The merge write must not clobber unrelated fields.
	if doc["unlocks"] != int64(5) {
		t.Errorf("expected unlock counter preserved, got %v", doc["unlocks"])
	}
	if doc["title"] != "old listing" {
		t.Errorf("expected title preserved, got %v", doc["title"])
	}
}
