//go:build integration

// Package containers starts throwaway infrastructure for integration tests.
package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	Client    *redis.Client
}

// NewRedisContainer starts a Redis container and connects a client to it. The
// container and client are torn down with the test.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}

	return &RedisContainer{Container: container, Addr: addr, Client: client}
}

// FlushAll removes all keys. Use between tests to ensure isolation.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
