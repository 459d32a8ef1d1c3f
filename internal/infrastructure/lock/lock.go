// Package lock serializes work on a single key across requests, either within
// the process or across replicas through Redis.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"dealmint/internal/domain"
	"dealmint/pkg/logx"
)

const retryInterval = 50 * time.Millisecond

// releaseScript deletes the key only while it still holds our token.
//
//nolint:gochecknoglobals
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedis returns a lock whose keys expire after ttl. Acquire keeps retrying
// for up to wait before giving up.
func NewRedis(client *redis.Client, prefix string, ttl, wait time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *Redis) Acquire(ctx context.Context, key string) (func(context.Context), error) {
	fullKey := l.prefix + key
	token := xid.New().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("client.SetNX: %w", err)
		}

		if ok {
			return func(ctx context.Context) {
				if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
					logger(ctx).Warn("releaseScript.Run", slog.String("key", fullKey), logx.Error(err))
				}
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLockBusy, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Local is a per-key mutex for single-replica deployments.
type Local struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]chan struct{})}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(context.Context), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func(context.Context) { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
