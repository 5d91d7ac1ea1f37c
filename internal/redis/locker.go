package redis

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
)

const otelName = "github.com/sanLimbu/tasksync/internal/redis"

// releaseScript deletes the lock only when it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serialises updates of the same task across several server processes.
type Locker struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	retry  time.Duration
}

// NewLocker returns a Locker storing its locks in client.
func NewLocker(client *redis.Client, logger *zap.Logger) *Locker {
	return &Locker{
		client: client,
		logger: logger,
		ttl:    10 * time.Second,
		retry:  20 * time.Millisecond,
	}
}

// Lock blocks until the lock for id is acquired or ctx is done. The lock expires after its
// TTL if the holder never releases it.
func (l *Locker) Lock(ctx context.Context, id internal.TaskID) (func(), error) {
	ctx, span := newOTELSpan(ctx, "Locker.Lock")
	defer span.End()

	key := lockKey(id)
	token := uuid.NewString()

	span.SetAttributes(attribute.String("lock.key", key))

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.SetNX")
		}

		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, internal.WrapErrorf(ctx.Err(), internal.ErrorCodeUnknown, "waiting for %s", key)
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlocker(key, token string) func() {
	var once sync.Once

	return func() {
		once.Do(func() { l.release(key, token) })
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("releasing lock failed", zap.String("key", key), zap.Error(err))
	}
}

func lockKey(id internal.TaskID) string {
	return "tasksync:lock:task:" + id.String()
}

func newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemRedis)

	return ctx, span
}
