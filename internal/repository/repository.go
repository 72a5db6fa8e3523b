package repository

import (
	"context"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/store"
)

// Repository provides typed access to the marketplace collections on top of
// the document-store client. Entities are translated to and from field maps at
// this boundary; nothing above it sees raw documents.
type Repository struct {
	client store.Client
}

// New constructs a Repository backed by the provided store client.
func New(client store.Client) *Repository {
	return &Repository{client: client}
}

// GetProperty fetches a single listing, returning store.ErrNotFound when the
// listing is absent.
func (r *Repository) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	doc, err := r.client.Get(ctx, store.CollectionProperties, id)
	if err != nil {
		return domain.Property{}, err
	}
	return decodeProperty(doc), nil
}

// IncrementPropertyUnlocks atomically bumps a listing's unlock counter.
func (r *Repository) IncrementPropertyUnlocks(ctx context.Context, id string) error {
	return r.client.Increment(ctx, store.CollectionProperties, id, "unlocks", 1)
}

// ListExpirableProperties returns active listings created before the cutoff.
func (r *Repository) ListExpirableProperties(ctx context.Context, cutoff time.Time) ([]domain.Property, error) {
	docs, err := r.client.Query(ctx, store.CollectionProperties,
		store.Filter{Field: "isActive", Op: store.OpEqual, Value: true},
		store.Filter{Field: "createdAt", Op: store.OpLess, Value: cutoff},
	)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs), nil
}

// ExpireProperties retires the given listings in one atomic batch, stamping
// the expiry time and reason. The transition is never reversed.
func (r *Repository) ExpireProperties(ctx context.Context, ids []string, expiredAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	writes := make([]store.Write, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, store.Write{
			Collection: store.CollectionProperties,
			ID:         id,
			Merge:      true,
			Data: map[string]any{
				"isActive":      false,
				"expiredAt":     expiredAt,
				"expiredReason": domain.ExpiredReasonAuto,
			},
		})
	}
	return r.client.BatchWrite(ctx, writes)
}

// ListAllProperties scans the whole properties collection.
func (r *Repository) ListAllProperties(ctx context.Context) ([]domain.Property, error) {
	docs, err := r.client.Query(ctx, store.CollectionProperties)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs), nil
}

// AddProperty inserts a listing under a store-generated id. Used by seeding
// tools; the app surface owns listing creation in production.
func (r *Repository) AddProperty(ctx context.Context, p domain.Property) (string, error) {
	return r.client.Add(ctx, store.CollectionProperties, propertyData(p))
}

// GetUser fetches a single user, returning store.ErrNotFound when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	doc, err := r.client.Get(ctx, store.CollectionUsers, id)
	if err != nil {
		return domain.User{}, err
	}
	return decodeUser(doc), nil
}

// ListActiveUsers scans users with isActive = true.
func (r *Repository) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	docs, err := r.client.Query(ctx, store.CollectionUsers,
		store.Filter{Field: "isActive", Op: store.OpEqual, Value: true},
	)
	if err != nil {
		return nil, err
	}
	return decodeUsers(docs), nil
}

// ListAllUsers scans the whole users collection.
func (r *Repository) ListAllUsers(ctx context.Context) ([]domain.User, error) {
	docs, err := r.client.Query(ctx, store.CollectionUsers)
	if err != nil {
		return nil, err
	}
	return decodeUsers(docs), nil
}

// AddUser inserts a user under a store-generated id. Used by seeding tools.
func (r *Repository) AddUser(ctx context.Context, u domain.User) (string, error) {
	return r.client.Add(ctx, store.CollectionUsers, userData(u))
}

// UnlockExists reports whether an unlock is already recorded for the pair.
func (r *Repository) UnlockExists(ctx context.Context, userID, propertyID string) (bool, error) {
	docs, err := r.client.Query(ctx, store.CollectionUnlocks,
		store.Filter{Field: "userId", Op: store.OpEqual, Value: userID},
		store.Filter{Field: "propertyId", Op: store.OpEqual, Value: propertyID},
	)
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// CreateUnlock records an unlock under its deterministic id, failing with
// store.ErrAlreadyExists if the pair is already unlocked. The conditional
// write is what enforces the at-most-one invariant under concurrency.
func (r *Repository) CreateUnlock(ctx context.Context, id string, u domain.Unlock) error {
	return r.client.Create(ctx, store.CollectionUnlocks, id, map[string]any{
		"userId":     u.UserID,
		"propertyId": u.PropertyID,
		"paymentId":  u.PaymentID,
		"amount":     u.Amount,
		"unlockedAt": u.UnlockedAt,
		"verified":   u.Verified,
	})
}

// ListUnlocksBetween returns unlocks recorded in [from, to).
func (r *Repository) ListUnlocksBetween(ctx context.Context, from, to time.Time) ([]domain.Unlock, error) {
	docs, err := r.client.Query(ctx, store.CollectionUnlocks,
		store.Filter{Field: "unlockedAt", Op: store.OpGreaterOrEqual, Value: from},
		store.Filter{Field: "unlockedAt", Op: store.OpLess, Value: to},
	)
	if err != nil {
		return nil, err
	}

	unlocks := make([]domain.Unlock, 0, len(docs))
	for _, doc := range docs {
		unlocks = append(unlocks, decodeUnlock(doc))
	}
	return unlocks, nil
}

// AddNotification persists a single notification under a generated id.
func (r *Repository) AddNotification(ctx context.Context, n domain.Notification) (string, error) {
	return r.client.Add(ctx, store.CollectionNotifications, notificationData(n))
}

// AddNotifications persists the batch atomically; an empty batch is a no-op.
func (r *Repository) AddNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	writes := make([]store.Write, 0, len(notifications))
	for _, n := range notifications {
		writes = append(writes, store.Write{
			Collection: store.CollectionNotifications,
			Data:       notificationData(n),
		})
	}
	return r.client.BatchWrite(ctx, writes)
}

// SaveAnalytics upserts the daily snapshot keyed by its calendar date, so a
// re-run for the same day overwrites rather than duplicates.
func (r *Repository) SaveAnalytics(ctx context.Context, a domain.Analytics) error {
	return r.client.Set(ctx, store.CollectionAnalytics, a.DateKey(), map[string]any{
		"date":             a.Date,
		"totalProperties":  a.TotalProperties,
		"activeProperties": a.ActiveProperties,
		"totalUsers":       a.TotalUsers,
		"activeUsers":      a.ActiveUsers,
		"dailyUnlocks":     a.DailyUnlocks,
		"dailyRevenue":     a.DailyRevenue,
		"generatedAt":      a.GeneratedAt,
	})
}

func propertyData(p domain.Property) map[string]any {
	data := map[string]any{
		"ownerId":      p.OwnerID,
		"title":        p.Title,
		"rent":         p.Rent,
		"propertyType": p.PropertyType,
		"location": map[string]any{
			"address": p.Location.Address,
			"city":    p.Location.City,
			"pincode": p.Location.Pincode,
		},
		"isActive":  p.IsActive,
		"unlocks":   p.Unlocks,
		"createdAt": p.CreatedAt,
	}
	if p.ExpiredAt != nil {
		data["expiredAt"] = *p.ExpiredAt
		data["expiredReason"] = p.ExpiredReason
	}
	return data
}

func userData(u domain.User) map[string]any {
	return map[string]any{
		"fullName": u.FullName,
		"email":    u.Email,
		"isActive": u.IsActive,
		"preferences": map[string]any{
			"minRent":        u.Preferences.MinRent,
			"maxRent":        u.Preferences.MaxRent,
			"propertyTypes":  u.Preferences.PropertyTypes,
			"preferredAreas": u.Preferences.PreferredAreas,
		},
		"fcmTokens": u.FCMTokens,
		"createdAt": u.CreatedAt,
	}
}

func notificationData(n domain.Notification) map[string]any {
	return map[string]any{
		"userId":    n.UserID,
		"type":      n.Type,
		"title":     n.Title,
		"body":      n.Body,
		"data":      n.Data,
		"createdAt": n.CreatedAt,
		"read":      n.Read,
	}
}

// Decoding tolerates missing or differently typed fields: documents written by
// older app versions may lack keys, and the store reports integers as int64.

func decodeProperty(doc store.Document) domain.Property {
	p := domain.Property{
		ID:            doc.ID,
		OwnerID:       asString(doc.Data["ownerId"]),
		Title:         asString(doc.Data["title"]),
		Rent:          asFloat(doc.Data["rent"]),
		PropertyType:  asString(doc.Data["propertyType"]),
		IsActive:      asBool(doc.Data["isActive"]),
		Unlocks:       int64(asFloat(doc.Data["unlocks"])),
		CreatedAt:     asTime(doc.Data["createdAt"]),
		ExpiredReason: asString(doc.Data["expiredReason"]),
	}
	if loc, ok := doc.Data["location"].(map[string]any); ok {
		p.Location = domain.Location{
			Address: asString(loc["address"]),
			City:    asString(loc["city"]),
			Pincode: asString(loc["pincode"]),
		}
	}
	if t := asTime(doc.Data["expiredAt"]); !t.IsZero() {
		p.ExpiredAt = &t
	}
	return p
}

func decodeProperties(docs []store.Document) []domain.Property {
	properties := make([]domain.Property, 0, len(docs))
	for _, doc := range docs {
		properties = append(properties, decodeProperty(doc))
	}
	return properties
}

func decodeUser(doc store.Document) domain.User {
	u := domain.User{
		ID:        doc.ID,
		FullName:  asString(doc.Data["fullName"]),
		Email:     asString(doc.Data["email"]),
		IsActive:  asBool(doc.Data["isActive"]),
		FCMTokens: asStringSlice(doc.Data["fcmTokens"]),
		CreatedAt: asTime(doc.Data["createdAt"]),
	}
	if prefs, ok := doc.Data["preferences"].(map[string]any); ok {
		u.Preferences = domain.Preferences{
			MinRent:        asFloat(prefs["minRent"]),
			MaxRent:        asFloat(prefs["maxRent"]),
			PropertyTypes:  asStringSlice(prefs["propertyTypes"]),
			PreferredAreas: asStringSlice(prefs["preferredAreas"]),
		}
	}
	return u
}

func decodeUsers(docs []store.Document) []domain.User {
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeUser(doc))
	}
	return users
}

func decodeUnlock(doc store.Document) domain.Unlock {
	return domain.Unlock{
		ID:         doc.ID,
		UserID:     asString(doc.Data["userId"]),
		PropertyID: asString(doc.Data["propertyId"]),
		PaymentID:  asString(doc.Data["paymentId"]),
		Amount:     asFloat(doc.Data["amount"]),
		UnlockedAt: asTime(doc.Data["unlockedAt"]),
		Verified:   asBool(doc.Data["verified"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
