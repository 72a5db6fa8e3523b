package store

import (
	"context"
	"errors"
)

// Collection names used across the backend.
const (
	CollectionProperties    = "properties"
	CollectionUsers         = "users"
	CollectionUnlocks       = "unlocks"
	CollectionNotifications = "notifications"
	CollectionAnalytics     = "analytics"
)

// Client defines the minimal contract required by the repositories to interact
// with the underlying document store.
type Client interface {
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Query returns documents matching every filter (logical AND).
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Add inserts a document under a store-generated id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Create inserts a document under the given id, failing with
	// ErrAlreadyExists if the id is taken. This is the conditional write the
	// unlock ledger relies on for its uniqueness invariant.
	Create(ctx context.Context, collection, id string, data map[string]any) error
	// Set overwrites the document under the given id, creating it if absent.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Increment atomically adds delta to a numeric field of an existing
	// document, failing with ErrNotFound if the document is absent.
	Increment(ctx context.Context, collection, id, field string, delta int64) error
	// BatchWrite applies all writes atomically; none commit if any fails.
	BatchWrite(ctx context.Context, writes []Write) error
	VerifyConnectivity(ctx context.Context) error
	Close() error
}

// Document pairs a document id with its field values.
type Document struct {
	ID   string
	Data map[string]any
}

// Op enumerates supported filter comparators.
type Op string

// Comparators accepted by Query.
const (
	OpEqual          Op = "=="
	OpLess           Op = "<"
	OpGreaterOrEqual Op = ">="
)

// Filter constrains a query to documents whose field compares against value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Write is a single mutation inside an atomic batch. An empty ID requests a
// store-generated id. Merge restricts the write to the provided fields instead
// of replacing the whole document.
type Write struct {
	Collection string
	ID         string
	Data       map[string]any
	Merge      bool
}

// Options configures a store client implementation.
type Options struct {
	ProjectID       string
	CredentialsFile string
}

// Sentinel errors surfaced by Client implementations.
var (
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyExists    = errors.New("document already exists")
	ErrMissingProjectID = errors.New("store project ID is required")
)
