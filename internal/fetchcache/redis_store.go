// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/catalog-search/pkg/types"
)

const defaultRedisPrefix = "catalog-search:"

// RedisStore keeps results as JSON strings under a key prefix and lets
// Redis expire them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects a store to the server in cfg.
func NewRedisStore(cfg types.RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client. An empty prefix uses
// "catalog-search:".
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) redisKey(key types.RequestKey) string {
	return s.prefix + string(key)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key types.RequestKey) (*types.SearchResult, bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var res types.SearchResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return &res, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key types.RequestKey, res *types.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key types.RequestKey) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Len implements Store.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	return len(keys), err
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
