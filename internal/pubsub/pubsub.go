package pubsub

import (
	"context"
)

// Message is the raw payload delivered to a subscriber callback.
type Message []byte

// Event is anything that can travel over the pubsub as a Message.
type Event interface {
	Marshal() (Message, error)
	Unmarshal(Message) error
}

// EventHandler processes one message from a topic.
type EventHandler func(context.Context, Message) error

// Publisher sends events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload Event) error
}

// Subscriber registers a handler for a topic. Subscribe does not block; the
// handler runs until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, callback EventHandler)
}

// Client groups both sides of the pubsub.
type Client interface {
	Publisher
	Subscriber
}
