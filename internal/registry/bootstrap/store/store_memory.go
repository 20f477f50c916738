package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"domainlens/internal/registry/bootstrap"
	"domainlens/pkg/platform/sentinel"
)

// maxDirectories bounds how many bootstrap sources are cached at once.
const maxDirectories = 8

// InMemoryDirectoryStore caches parsed directories in process with TTL expiration.
type InMemoryDirectoryStore struct {
	entries *expirable.LRU[string, *bootstrap.Directory]
}

// NewInMemoryDirectoryStore creates a store whose entries expire after ttl.
func NewInMemoryDirectoryStore(ttl time.Duration) *InMemoryDirectoryStore {
	return &InMemoryDirectoryStore{
		entries: expirable.NewLRU[string, *bootstrap.Directory](maxDirectories, nil, ttl),
	}
}

// Get returns the cached directory for url or sentinel.ErrNotFound.
func (s *InMemoryDirectoryStore) Get(_ context.Context, url string) (*bootstrap.Directory, error) {
	if dir, ok := s.entries.Get(url); ok {
		return dir, nil
	}
	return nil, sentinel.ErrNotFound
}

// Put stores dir under url. A nil directory is a no-op.
func (s *InMemoryDirectoryStore) Put(_ context.Context, url string, dir *bootstrap.Directory) error {
	if dir == nil {
		return nil
	}
	s.entries.Add(url, dir)
	return nil
}
