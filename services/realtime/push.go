package realtime

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type pushCounts struct {
	attempted int
	delivered int
	failed    int
}

// pushAll sends ev to every conn with at most limit pushes in flight. Each
// push gets its own timeout; a conn that fails is evicted and closed. Pushes
// are detached from the caller's cancellation, so an abandoned request or an
// expired unit deadline never reads as a dead connection.
func pushAll(ctx context.Context, reg *Registry, conns []Conn, ev Event, timeout time.Duration, limit int, logger *zap.Logger) pushCounts {
	var delivered, failed int64

	base := context.WithoutCancel(ctx)
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			pushCtx, cancel := context.WithTimeout(base, timeout)
			defer cancel()
			if err := conn.Push(pushCtx, ev); err != nil {
				atomic.AddInt64(&failed, 1)
				logger.Warn("Push failed, evicting connection",
					zap.String("conn", conn.ID()),
					zap.String("event", string(ev.Type)),
					zap.Error(err))
				reg.Leave(conn)
				_ = conn.Close()
				return nil
			}
			atomic.AddInt64(&delivered, 1)
			return nil
		})
	}
	_ = g.Wait()

	return pushCounts{attempted: len(conns), delivered: int(delivered), failed: int(failed)}
}
