package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainlens/internal/registry/providers"
)

func outage() error {
	return providers.NewProviderError(providers.ErrorProviderOutage, "test", "boom", nil)
}

func fastPolicy() Policy {
	return Policy{Attempts: 3, Delay: 10 * time.Millisecond, AttemptTimeout: time.Second}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds on third attempt after waiting between attempts", func(t *testing.T) {
		calls := 0
		start := time.Now()
		got, err := Do(ctx, fastPolicy(), func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", outage()
			}
			return "record", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "record", got)
		assert.Equal(t, 3, calls)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("never makes a fourth attempt and surfaces the last error", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, providers.NewProviderError(providers.ErrorTimeout, "test", "attempt", errors.New(string(rune('0'+calls))))
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), ": 3")
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, providers.NewProviderError(providers.ErrorNoServer, "test", "no server", nil)
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, providers.ErrorNoServer, providers.GetCategory(err))
	})

	t.Run("plain errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("bug")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("counters are local to each call", func(t *testing.T) {
		p := fastPolicy()
		for range 2 {
			calls := 0
			_, _ = Do(ctx, p, func(context.Context) (int, error) {
				calls++
				return 0, outage()
			})
			assert.Equal(t, 3, calls)
		}
	})

	t.Run("each attempt gets its own deadline", func(t *testing.T) {
		p := Policy{Attempts: 2, Delay: time.Millisecond, AttemptTimeout: 20 * time.Millisecond}
		var deadlines []time.Time
		_, _ = Do(ctx, p, func(actx context.Context) (int, error) {
			d, ok := actx.Deadline()
			require.True(t, ok)
			deadlines = append(deadlines, d)
			<-actx.Done()
			return 0, providers.FromContext("test", actx.Err())
		})
		require.Len(t, deadlines, 2)
		assert.True(t, deadlines[1].After(deadlines[0]))
	})

	t.Run("cancellation skips remaining delay and attempts", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		p := Policy{Attempts: 3, Delay: time.Hour}
		calls := 0
		done := make(chan error, 1)
		go func() {
			_, err := Do(cctx, p, func(context.Context) (int, error) {
				calls++
				return 0, outage()
			})
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()
		select {
		case err := <-done:
			assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
			assert.Equal(t, 1, calls)
		case <-time.After(2 * time.Second):
			t.Fatal("retry did not stop on cancellation")
		}
	})

	t.Run("already canceled context makes no attempt", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		_, err := Do(cctx, fastPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("reports each attempt", func(t *testing.T) {
		p := fastPolicy()
		var seen []int
		p.OnAttempt = func(attempt int, _ error) { seen = append(seen, attempt) }
		_, _ = Do(ctx, p, func(context.Context) (int, error) { return 0, outage() })
		assert.Equal(t, []int{1, 2, 3}, seen)
	})
}
