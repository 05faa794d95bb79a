package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

func newTestLock(t *testing.T, ttl time.Duration) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLock(client, ttl, logging.New("error")), mr
}

func TestRedisLockAcquireRelease(t *testing.T) {
	lock, _ := newTestLock(t, 30*time.Second)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "conversation:org:phone")
	assert.ErrorIs(t, err, ErrLockBusy)

	release()

	release2, err := lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)
	release2()
}

func TestRedisLockIndependentKeys(t *testing.T) {
	lock, _ := newTestLock(t, 30*time.Second)
	ctx := context.Background()

	release1, err := lock.Acquire(ctx, "conversation:org:a")
	require.NoError(t, err)
	defer release1()

	release2, err := lock.Acquire(ctx, "conversation:org:b")
	require.NoError(t, err)
	defer release2()
}

func TestRedisLockExpires(t *testing.T) {
	lock, mr := newTestLock(t, time.Second)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)
	release()
}

func TestRedisLockStaleReleaseKeepsNewHolder(t *testing.T) {
	lock, mr := newTestLock(t, time.Second)
	ctx := context.Background()

	staleRelease, err := lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = lock.Acquire(ctx, "conversation:org:phone")
	require.NoError(t, err)

	// The expired holder's release must not free the new holder's lock.
	staleRelease()
	_, err = lock.Acquire(ctx, "conversation:org:phone")
	assert.ErrorIs(t, err, ErrLockBusy)
}
