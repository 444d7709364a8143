package notify

import (
	"fmt"
	"sync"
)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu         sync.Mutex
	Messages   map[string][][]byte
	FailTopics map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:   make(map[string][][]byte),
		FailTopics: make(map[string]bool),
	}
}

// Publish records the payload or returns an error if configured to fail.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopics[topic] {
		return fmt.Errorf("publish failed")
	}
	m.Messages[topic] = append(m.Messages[topic], payload)
	return nil
}

// Count returns how many payloads were published to the topic.
func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[topic])
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
