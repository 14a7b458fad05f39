package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Store     bool      `json:"store"`
	Redis     bool      `json:"redis"`
	LiveConns int       `json:"liveConnections"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// StartHealthMonitor performs periodic health checks and updates in-memory state
// until ctx is cancelled. storePing and liveConns may be nil.
func StartHealthMonitor(ctx context.Context, every time.Duration, redisClient *redis.Client, storePing func(context.Context) error, liveConns func() int) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		status := HealthStatus{CheckedAt: time.Now()}
		if redisClient != nil {
			status.Redis = redisClient.Ping(pingCtx).Err() == nil
		}
		if storePing != nil {
			status.Store = storePing(pingCtx) == nil
		}
		if liveConns != nil {
			status.LiveConns = liveConns()
		}

		mu.Lock()
		currentHealth = status
		mu.Unlock()
	}

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		check()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}
