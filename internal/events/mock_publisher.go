package events

import (
	"context"
	"sync"
)

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu       sync.Mutex
	audit    []Event
	identity []IdentityChanged
	Err      error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) PublishAudit(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.audit = append(m.audit, event)
	return nil
}

func (m *MockEventPublisher) PublishIdentityChanged(ctx context.Context, event IdentityChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.identity = append(m.identity, event)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) GetPublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.audit...)
}

func (m *MockEventPublisher) GetIdentityEvents() []IdentityChanged {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]IdentityChanged(nil), m.identity...)
}

// Actions lists the audit actions in publish order.
func (m *MockEventPublisher) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.audit))
	for i, e := range m.audit {
		out[i] = string(e.Action)
	}
	return out
}
