package pubsub

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/vehicletag/registration-node/internal/log"
)

// RedisClient struct
type RedisClient struct {
	conn *redis.Client
}

// NewRedis returns a redis pubsub client
func NewRedis(rdb *redis.Client) Client {
	return &RedisClient{rdb}
}

// Publish publishes a new topic payload
func (rdb *RedisClient) Publish(ctx context.Context, topic string, payload Event) error {
	msg, err := payload.Marshal()
	if err != nil {
		return err
	}
	return rdb.conn.Publish(ctx, topic, []byte(msg)).Err()
}

// Subscribe adds a topic subscription and runs the callback for every message
// received on it until the context is cancelled.
func (rdb *RedisClient) Subscribe(ctx context.Context, topic string, callback EventHandler) {
	pubsub := rdb.conn.Subscribe(ctx, topic)
	go func() {
		for {
			select {
			case event := <-pubsub.Channel():
				if event.Channel != topic {
					log.Error(ctx, "msg channel != topic", "channel", event.Channel, "topic", topic)
					continue
				}
				run(ctx, topic, callback, Message(event.Payload))

			case <-ctx.Done():
				return
			}
		}
	}()
}

// run executes one callback, surviving panics so a poisoned message cannot
// kill the subscription loop.
func run(ctx context.Context, topic string, callback EventHandler, msg Message) {
	defer func() {
		if p := recover(); p != nil {
			log.Error(ctx, "callback panicked", "panic", p, "topic", topic)
		}
	}()
	if err := callback(ctx, msg); err != nil {
		log.Error(ctx, "executing callback function", "err", err, "topic", topic)
	}
}
