package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryClient is an in-memory implementation of the Client interface used for
// unit testing repository and service logic without a running Firestore. It
// evaluates the same equality/range filters the real store does.
type MemoryClient struct {
	mu           sync.Mutex
	collections  map[string]map[string]map[string]any
	err          error
	connectivity error
}

// NewMemoryClient instantiates an empty in-memory store.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{collections: make(map[string]map[string]map[string]any)}
}

// WithError configures the client to return the provided error for subsequent
// mutating and querying calls.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// Seed inserts a document directly, bypassing error injection.
func (m *MemoryClient) Seed(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, data)
}

// Doc returns a copy of a stored document's data and whether it exists.
func (m *MemoryClient) Doc(collection, id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, false
	}
	return cloneDoc(doc), true
}

// Len reports the number of documents in a collection.
func (m *MemoryClient) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

func (m *MemoryClient) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Document{}, m.err
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: cloneDoc(doc)}, nil
}

func (m *MemoryClient) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	var docs []Document
	for id, data := range m.collections[collection] {
		if matchesFilters(data, filters) {
			docs = append(docs, Document{ID: id, Data: cloneDoc(data)})
		}
	}
	return docs, nil
}

func (m *MemoryClient) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	id := uuid.NewString()
	m.put(collection, id, data)
	return id, nil
}

func (m *MemoryClient) Create(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, exists := m.collections[collection][id]; exists {
		return ErrAlreadyExists
	}
	m.put(collection, id, data)
	return nil
}

func (m *MemoryClient) Set(_ context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.put(collection, id, data)
	return nil
}

func (m *MemoryClient) Increment(_ context.Context, collection, id, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	doc[field] = asInt64(doc[field]) + delta
	return nil
}

func (m *MemoryClient) BatchWrite(_ context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	// Applied only after the whole batch is staged, mirroring the all-or-nothing
	// commit of the real store.
	type staged struct {
		collection string
		id         string
		data       map[string]any
		merge      bool
	}
	stagedWrites := make([]staged, 0, len(writes))
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		stagedWrites = append(stagedWrites, staged{w.Collection, id, w.Data, w.Merge})
	}

	for _, s := range stagedWrites {
		if s.merge {
			if existing, ok := m.collections[s.collection][s.id]; ok {
				for k, v := range s.data {
					existing[k] = v
				}
				continue
			}
		}
		m.put(s.collection, s.id, s.data)
	}
	return nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close() error {
	return nil
}

func (m *MemoryClient) put(collection, id string, data map[string]any) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = cloneDoc(data)
}

func matchesFilters(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		value, ok := data[f.Field]
		if !ok {
			return false
		}
		cmp, comparable := compareValues(value, f.Value)
		if !comparable {
			return false
		}
		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false
			}
		case OpLess:
			if cmp >= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders two document values of compatible types. The second
// result is false when the types cannot be compared.
func compareValues(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}

	if af, ok := asFloat64(a); ok {
		bf, ok := asFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}

	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		return 1, true
	}

	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func cloneDoc(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
