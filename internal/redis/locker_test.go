package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLockKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tasksync:lock:task:42", lockKey(42))
}

func TestLocker_Unreachable(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlock, err := NewLocker(client, zap.NewNop()).Lock(ctx, 1)
	assert.Error(t, err)
	assert.Nil(t, unlock)
}
