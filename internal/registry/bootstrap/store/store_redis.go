package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"domainlens/internal/registry/bootstrap"
	"domainlens/pkg/platform/sentinel"
)

const keyPrefix = "domainlens:bootstrap:"

// RedisDirectoryStore shares the parsed directory across service instances.
type RedisDirectoryStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisDirectoryStore creates a Redis-backed store with the given entry TTL.
func NewRedisDirectoryStore(client redis.UniversalClient, ttl time.Duration) *RedisDirectoryStore {
	return &RedisDirectoryStore{client: client, ttl: ttl}
}

func (s *RedisDirectoryStore) Get(ctx context.Context, url string) (*bootstrap.Directory, error) {
	data, err := s.client.Get(ctx, keyPrefix+url).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get directory: %v", sentinel.ErrUnavailable, err)
	}
	var dir bootstrap.Directory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("decode cached directory: %w", err)
	}
	return &dir, nil
}

func (s *RedisDirectoryStore) Put(ctx context.Context, url string, dir *bootstrap.Directory) error {
	if dir == nil {
		return nil
	}
	data, err := json.Marshal(dir)
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+url, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set directory: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
