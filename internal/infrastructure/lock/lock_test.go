package lock_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"dealmint/internal/domain"
	"dealmint/internal/infrastructure/lock"
	"dealmint/pkg/tests"
)

type locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context), error)
}

func assertExclusive(t *testing.T, l locker, key string) {
	t.Helper()

	var (
		inside     atomic.Int32
		violations atomic.Int32
		wg         sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release, err := l.Acquire(context.Background(), key)
			if !assert(t, err) {
				return
			}
			defer release(context.Background())

			if inside.Add(1) > 1 {
				violations.Add(1)
			}

			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
		}()
	}

	wg.Wait()

	require.Zero(t, violations.Load())
}

func assert(t *testing.T, err error) bool {
	t.Helper()

	if err != nil {
		t.Errorf("Acquire: %v", err)
		return false
	}

	return true
}

func TestLocal(t *testing.T) {
	l := lock.NewLocal()

	assertExclusive(t, l, "deal-1")

	release, err := l.Acquire(context.Background(), "deal-2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "deal-2")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release(context.Background())

	release, err = l.Acquire(context.Background(), "deal-2")
	require.NoError(t, err)
	release(context.Background())
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := lock.NewRedis(client, "test:lock:", time.Second, 2*time.Second)
	key := tests.RandomString(16)

	assertExclusive(t, l, key)

	release, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)

	short := lock.NewRedis(client, "test:lock:", time.Second, 0)
	_, err = short.Acquire(context.Background(), key)
	require.ErrorIs(t, err, domain.ErrLockBusy)

	release(context.Background())

	release, err = short.Acquire(context.Background(), key)
	require.NoError(t, err)
	release(context.Background())
}
