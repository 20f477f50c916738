package bootstrap_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainlens/internal/registry/bootstrap"
	"domainlens/internal/registry/bootstrap/store"
	"domainlens/pkg/domain"
	"domainlens/pkg/platform/sentinel"
	"domainlens/pkg/testutil"
)

func mustDomain(t *testing.T, s string) domain.DomainName {
	t.Helper()
	d, err := domain.ParseDomainName(s)
	require.NoError(t, err)
	return d
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	ds := testutil.NewDirectoryServer(t,
		testutil.Service([]string{"io"}, "https://rdap.io.example/"),
		testutil.Service([]string{"com", "net"}, "https://rdap.first.example/", "https://rdap.second.example/"),
		testutil.Service([]string{"com"}, "https://rdap.shadowed.example/"),
	)
	r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(ds.URL))

	t.Run("returns first matching entry's first endpoint", func(t *testing.T) {
		endpoint, err := r.Resolve(ctx, mustDomain(t, "example.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://rdap.first.example/", endpoint)
	})

	t.Run("is deterministic across calls", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			endpoint, err := r.Resolve(ctx, mustDomain(t, "sub.example.net"))
			require.NoError(t, err)
			assert.Equal(t, "https://rdap.first.example/", endpoint)
		}
	})

	t.Run("unknown tld fails with no server", func(t *testing.T) {
		_, err := r.Resolve(ctx, mustDomain(t, "example.zz"))
		require.Error(t, err)
		assert.ErrorIs(t, err, bootstrap.ErrNoServerForTLD)
		assert.NotErrorIs(t, err, bootstrap.ErrDirectoryUnavailable)
	})
}

func TestResolver_DirectoryUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("non 2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(srv.URL))
		_, err := r.Resolve(ctx, mustDomain(t, "example.com"))
		assert.ErrorIs(t, err, bootstrap.ErrDirectoryUnavailable)
		assert.NotErrorIs(t, err, bootstrap.ErrNoServerForTLD)
	})

	t.Run("malformed document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(srv.URL))
		_, err := r.Resolve(ctx, mustDomain(t, "example.com"))
		assert.ErrorIs(t, err, bootstrap.ErrDirectoryUnavailable)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(url))
		_, err := r.Resolve(ctx, mustDomain(t, "example.com"))
		assert.ErrorIs(t, err, bootstrap.ErrDirectoryUnavailable)
	})
}

func TestResolver_Caching(t *testing.T) {
	ctx := context.Background()

	t.Run("without a store every resolve fetches", func(t *testing.T) {
		ds := testutil.NewDirectoryServer(t, testutil.Service([]string{"com"}, "https://rdap.example/"))
		r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(ds.URL))

		_, err := r.Resolve(ctx, mustDomain(t, "a.com"))
		require.NoError(t, err)
		_, err = r.Resolve(ctx, mustDomain(t, "b.com"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), ds.Hits())
	})

	t.Run("cache hit avoids second fetch", func(t *testing.T) {
		ds := testutil.NewDirectoryServer(t, testutil.Service([]string{"com"}, "https://rdap.example/"))
		r := bootstrap.NewResolver(
			bootstrap.WithDirectoryURL(ds.URL),
			bootstrap.WithStore(store.NewInMemoryDirectoryStore(time.Minute)),
		)

		_, err := r.Resolve(ctx, mustDomain(t, "a.com"))
		require.NoError(t, err)
		_, err = r.Resolve(ctx, mustDomain(t, "b.com"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), ds.Hits())
	})

	t.Run("failing store degrades to network fetch", func(t *testing.T) {
		ds := testutil.NewDirectoryServer(t, testutil.Service([]string{"com"}, "https://rdap.example/"))
		r := bootstrap.NewResolver(
			bootstrap.WithDirectoryURL(ds.URL),
			bootstrap.WithStore(brokenStore{}),
		)

		endpoint, err := r.Resolve(ctx, mustDomain(t, "a.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://rdap.example/", endpoint)
	})

	t.Run("concurrent resolves succeed", func(t *testing.T) {
		ds := testutil.NewDirectoryServer(t, testutil.Service([]string{"com"}, "https://rdap.example/"))
		r := bootstrap.NewResolver(
			bootstrap.WithDirectoryURL(ds.URL),
			bootstrap.WithStore(store.NewInMemoryDirectoryStore(time.Minute)),
		)

		d := mustDomain(t, "a.com")
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.Resolve(ctx, d)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
		assert.LessOrEqual(t, ds.Hits(), int64(10))
	})
}

func TestResolver_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	r := bootstrap.NewResolver(bootstrap.WithDirectoryURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, mustDomain(t, "example.com"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*bootstrap.Directory, error) {
	return nil, errors.Join(sentinel.ErrUnavailable, errors.New("connection reset"))
}

func (brokenStore) Put(context.Context, string, *bootstrap.Directory) error {
	return sentinel.ErrUnavailable
}
