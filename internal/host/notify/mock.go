package notify

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter implements Adapter for testing. It records sent events.
type MockAdapter struct {
	mu     sync.Mutex
	sent   []Event
	closed bool
	// FailWith, if set, is returned from every Send.
	FailWith error
}

// NewMockAdapter creates an empty MockAdapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Send records the event.
func (m *MockAdapter) Send(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: closed")
	}
	if m.FailWith != nil {
		return m.FailWith
	}
	m.sent = append(m.sent, ev)
	return nil
}

// Close marks the adapter closed.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Sent returns a copy of all recorded events.
func (m *MockAdapter) Sent() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent event and whether one exists.
func (m *MockAdapter) LastSent() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Event{}, false
	}
	return m.sent[len(m.sent)-1], true
}
