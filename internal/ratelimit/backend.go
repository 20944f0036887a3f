package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

/*
COORDINATION BACKEND

The primary store for bucket state is a shared key-value store so that
multiple gateway processes agree on roughly the same quota. The
read-modify-write performed by Bucket.Acquire is NOT atomic across
processes: a conforming backend may race under contention, and the
adaptive clamp plus circuit breaker are expected to absorb the resulting
slight over-admission. A backend implementation must never panic and
must report transport/protocol failures as an error so the bucket can
fall back to its in-process mirror.
*/

// Backend is the coordination backend contract: a shared key-value store
// holding the serialized [available, last] pair for one (provider,
// period) bucket.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Ping reports whether the backend is currently reachable. Used by
	// the liveness check; a Ping failure never affects Acquire, which
	// always falls back locally on its own.
	Ping(ctx context.Context) error
}

// RedisBackend adapts a go-redis client to the Backend contract.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend builds a Backend backed by Redis at redisURL.
func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{client: redis.NewClient(opt)}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// MemBackend is an in-process Backend used in tests and as the degenerate
// single-process deployment; it never errors, so Bucket.Acquire never
// falls back when using it.
type MemBackend struct {
	data map[string][]byte
}

func NewMemBackend() *MemBackend {
	return &MemBackend{data: make(map[string][]byte)}
}

func (b *MemBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *MemBackend) Set(_ context.Context, key string, value []byte) error {
	b.data[key] = value
	return nil
}

func (b *MemBackend) Ping(_ context.Context) error { return nil }

// FailingBackend is a test double that always errors, used to exercise
// the fallback path deterministically.
type FailingBackend struct{ Err error }

func (b FailingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, b.Err
}
func (b FailingBackend) Set(context.Context, string, []byte) error { return b.Err }
func (b FailingBackend) Ping(context.Context) error                { return b.Err }

var _ Backend = (*RedisBackend)(nil)
var _ Backend = (*MemBackend)(nil)
var _ Backend = FailingBackend{}
