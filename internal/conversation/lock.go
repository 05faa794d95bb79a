package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// ErrLockBusy reports that another worker already holds the conversation.
// The queue redelivers the message once the holder finishes.
var ErrLockBusy = errors.New("conversation: lock busy")

// Locker serializes processing per conversation so two workers never
// interleave turns of the same patient.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the lock only when the token still matches, so an
// expired lock reclaimed by another worker is never released by the old
// holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a Locker backed by Redis SET NX with a TTL safety net.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisLock creates a lock manager. TTL bounds how long a crashed worker
// can hold a conversation.
func NewRedisLock(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisLock {
	if client == nil {
		panic("conversation: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLock{client: client, ttl: ttl, logger: logger}
}

// Acquire takes the lock or returns ErrLockBusy.
func (l *RedisLock) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLockBusy
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release conversation lock", "error", err, "key", key)
		}
	}
	return release, nil
}
