package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Open connects to redis at the given URL and verifies the connection with a
// ping before returning the client.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := Status(ctx, client); err != nil {
		return nil, err
	}

	return client, nil
}

// Status pings redis, returning the ping error if the server is unreachable.
func Status(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
