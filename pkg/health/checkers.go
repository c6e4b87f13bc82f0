package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than limit goroutines are running,
// which usually means request handlers are piling up behind a stuck
// dependency.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when a GC cycle completed since the previous run
// paused the world longer than limit.
func GCMaxPauseCheck(limit time.Duration) CheckFunc {
	var (
		mu     sync.Mutex
		seenGC int64
	)
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		mu.Lock()
		fresh := min(stats.NumGC-seenGC, int64(len(stats.Pause)))
		seenGC = stats.NumGC
		mu.Unlock()

		// Pause is ordered most recent first.
		for _, p := range stats.Pause[:fresh] {
			if p > limit {
				return errors.Errorf("GC paused %s, limit %s", p, limit)
			}
		}
		return nil
	}
}

// Pinger is a dependency reachable by Ping, such as *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck pings p and names the dependency in the error.
func PingCheck(name string, p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrapf(err, "ping %s", name)
		}
		return nil
	}
}
