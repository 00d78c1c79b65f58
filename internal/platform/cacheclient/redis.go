// Package cacheclient wraps the github.com/redis/go-redis/v9 client used
// to back the Promotion Cache.
package cacheclient

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect builds a *redis.Client and verifies connectivity with a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
