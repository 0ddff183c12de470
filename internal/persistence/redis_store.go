package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys when the caller gives no prefix.
const DefaultRedisPrefix = "flowcraft:"

// RedisDocumentStore is a DocumentStore backed by Redis.
// Each document lives in a plain string key:
//
//	<prefix>doc:<key>  => JSON payload
type RedisDocumentStore struct {
	client *redis.Client
	prefix string
}

var _ DocumentStore = (*RedisDocumentStore)(nil)

// NewRedisDocumentStore creates a RedisDocumentStore.
// prefix is optional but recommended (e.g. "flowcraft:").
func NewRedisDocumentStore(client *redis.Client, prefix string) *RedisDocumentStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisDocumentStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisDocumentStore) keyDocument(key string) string {
	return s.prefix + "doc:" + key
}

func (s *RedisDocumentStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.keyDocument(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis put %q: %w", key, err)
	}
	return nil
}

func (s *RedisDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyDocument(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, nil
}

func (s *RedisDocumentStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyDocument(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}
