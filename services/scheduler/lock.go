package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockKeyPrefix = "daily-broadcast:lock:"

// RunLock keeps two triggers from running the same runID at once.
type RunLock interface {
	// Acquire returns ok=false when someone else holds runID. The lock stays
	// held until release; an abandoned lock expires after ttl.
	Acquire(ctx context.Context, runID string, ttl time.Duration) (release func(), ok bool, err error)
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the TTL only if we still own the key.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisRunLock is a SETNX lock shared by every process on the same Redis.
type RedisRunLock struct {
	client *redis.Client
}

func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{client: client}
}

func (l *RedisRunLock) Acquire(ctx context.Context, runID string, ttl time.Duration) (func(), bool, error) {
	key := lockKeyPrefix + runID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire run lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(key, token, ttl, stop, done)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}
	return release, true, nil
}

// renew pushes the expiry out every third of ttl until stop closes or the
// key is no longer ours.
func (l *RedisRunLock) renew(key, token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if ttl < 3*time.Millisecond {
		<-stop
		return
	}
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), ttl/3)
			n, err := renewScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
