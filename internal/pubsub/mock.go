package pubsub

import (
	"context"
	"sync"
)

// Mock is an in process pubsub client for tests. Published events are kept
// per topic and delivered synchronously to any subscribed callbacks.
type Mock struct {
	mu        sync.Mutex
	published map[string][]Message
	handlers  map[string][]EventHandler
}

// NewMock returns a new mock pubsub client
func NewMock() *Mock {
	return &Mock{
		published: make(map[string][]Message),
		handlers:  make(map[string][]EventHandler),
	}
}

// Publish records the event and delivers it to subscribed callbacks
func (m *Mock) Publish(ctx context.Context, topic string, payload Event) error {
	msg, err := payload.Marshal()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.published[topic] = append(m.published[topic], msg)
	handlers := append([]EventHandler{}, m.handlers[topic]...)
	m.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, msg)
	}
	return nil
}

// Subscribe registers the callback for a topic
func (m *Mock) Subscribe(_ context.Context, topic string, callback EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = append(m.handlers[topic], callback)
}

// Published returns the messages published on a topic
func (m *Mock) Published(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.published[topic]...)
}
