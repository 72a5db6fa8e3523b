package push

import (
	"context"
	"sync"
)

// MemoryPusher records dispatched messages for assertions in tests. Failures
// can be injected per token or for whole Send calls.
type MemoryPusher struct {
	mu         sync.Mutex
	batches    [][]Message
	failTokens map[string]error
	err        error
}

// NewMemoryPusher instantiates an empty recording pusher.
func NewMemoryPusher() *MemoryPusher {
	return &MemoryPusher{failTokens: make(map[string]error)}
}

// WithError makes every subsequent Send call fail outright.
func (m *MemoryPusher) WithError(err error) *MemoryPusher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailToken marks an individual device token as undeliverable.
func (m *MemoryPusher) FailToken(token string, err error) *MemoryPusher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTokens[token] = err
	return m
}

func (m *MemoryPusher) Send(_ context.Context, messages []Message) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Report{}, m.err
	}

	m.batches = append(m.batches, append([]Message(nil), messages...))

	var report Report
	for _, msg := range messages {
		outcome := Outcome{Token: msg.Token, Err: m.failTokens[msg.Token]}
		if outcome.Err != nil {
			report.FailureCount++
		} else {
			report.SuccessCount++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// Batches returns a snapshot of recorded Send calls.
func (m *MemoryPusher) Batches() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Message(nil), m.batches...)
}

// Sent returns every recorded message across all Send calls.
func (m *MemoryPusher) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Message
	for _, batch := range m.batches {
		all = append(all, batch...)
	}
	return all
}
