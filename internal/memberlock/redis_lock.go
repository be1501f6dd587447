// Package memberlock serializes write requests issued by one member against one
// campaign, across API processes.
package memberlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a crashed holder can block the member.
const DefaultTTL = 15 * time.Second

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl, log: log}
}

func Key(campaignID, memberID uuid.UUID) string {
	return fmt.Sprintf("lock:member:%s:%s", campaignID, memberID)
}

// Lock takes the member's lock or fails with a retryable storage conflict when
// another request holds it. The returned func releases the lock.
func (l *RedisLocker) Lock(ctx context.Context, campaignID, memberID uuid.UUID) (func(), error) {
	key := Key(campaignID, memberID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: member lock: %w", apperr.ErrStorageUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: another request for this member is in progress", apperr.ErrStorageConflict)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("failed to release member lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
