package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"domainlens/internal/registry/metrics"
	"domainlens/pkg/domain"
	"domainlens/pkg/platform/sentinel"
)

var (
	// ErrDirectoryUnavailable is returned when the directory could not be fetched or decoded.
	ErrDirectoryUnavailable = errors.New("bootstrap directory unavailable")
	// ErrNoServerForTLD is returned when the directory has no entry for the TLD.
	ErrNoServerForTLD = errors.New("no RDAP server for TLD")
)

const maxDirectorySize = 4 << 20

// DirectoryStore caches parsed directories keyed by source URL.
// Get returns sentinel.ErrNotFound on a miss or expired entry.
type DirectoryStore interface {
	Get(ctx context.Context, url string) (*Directory, error)
	Put(ctx context.Context, url string, dir *Directory) error
}

// Resolver maps domains to their authoritative RDAP base URL.
type Resolver struct {
	url     string
	client  *http.Client
	store   DirectoryStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

type Option func(*Resolver)

// WithDirectoryURL overrides DefaultDirectoryURL.
func WithDirectoryURL(url string) Option {
	return func(r *Resolver) {
		if url != "" {
			r.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithStore enables directory caching. Without a store every Resolve fetches.
func WithStore(store DirectoryStore) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver builds a Resolver for the IANA directory unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		url:    DefaultDirectoryURL,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the base URL of the first directory entry serving the
// domain's TLD. Directory order is authoritative.
func (r *Resolver) Resolve(ctx context.Context, d domain.DomainName) (string, error) {
	dir, err := r.Directory(ctx)
	if err != nil {
		return "", err
	}
	endpoint, ok := dir.Lookup(d.TLD())
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoServerForTLD, d.TLD())
	}
	return endpoint, nil
}

// Directory returns the cached directory when available, otherwise fetches it.
// Concurrent fetches of the same URL share one request.
func (r *Resolver) Directory(ctx context.Context) (*Directory, error) {
	if dir := r.cached(ctx); dir != nil {
		return dir, nil
	}

	ch := r.group.DoChan(r.url, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the others sharing this fetch; the client timeout still bounds it.
		return r.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Directory), nil
	}
}

func (r *Resolver) cached(ctx context.Context) *Directory {
	if r.store == nil {
		return nil
	}
	dir, err := r.store.Get(ctx, r.url)
	if err == nil {
		r.metrics.RecordCacheHit()
		return dir
	}
	r.metrics.RecordCacheMiss()
	if !errors.Is(err, sentinel.ErrNotFound) {
		r.logger.WarnContext(ctx, "directory cache read failed, fetching",
			"url", r.url,
			"error", err,
		)
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context) (*Directory, error) {
	start := time.Now()
	dir, err := r.download(ctx)
	if err != nil {
		r.metrics.IncrementDirectoryFetchErrors()
		r.logger.ErrorContext(ctx, "bootstrap directory fetch failed",
			"url", r.url,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	r.logger.DebugContext(ctx, "bootstrap directory fetched",
		"url", r.url,
		"services", len(dir.Services),
		"publication", dir.Publication,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if r.store != nil {
		if err := r.store.Put(ctx, r.url, dir); err != nil {
			r.logger.WarnContext(ctx, "directory cache write failed",
				"url", r.url,
				"error", err,
			)
		}
	}
	return dir, nil
}

func (r *Resolver) download(ctx context.Context) (*Directory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectorySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return ParseDirectory(body)
}
