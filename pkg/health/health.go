// Package health serves the /livez and /readyz probes of the delivery API.
//
// Every check is polled in its own goroutine. A check flips to failing only
// after failureThreshold consecutive errors and back to passing after
// successThreshold consecutive successes, so a single slow Postgres or Redis
// round trip does not pull the instance out of rotation. Optional checks are
// reported but never fail a probe.
package health

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc probes one dependency and returns nil when it is usable.
type CheckFunc func(ctx context.Context) error

// result is the published outcome of the latest run of a check.
type result struct {
	passing   bool
	err       error
	checkedAt time.Time
	latency   time.Duration
}

type check struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int
	optional         bool

	last atomic.Pointer[result]

	// Streak counters belong to the polling goroutine.
	fails int
	oks   int
}

// CheckOption tunes a registered check.
type CheckOption func(*check)

// WithFailureThreshold sets how many consecutive errors fail a check.
// Defaults to 3.
func WithFailureThreshold(n int) CheckOption {
	return func(c *check) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes restore a
// failing check. Defaults to 1.
func WithSuccessThreshold(n int) CheckOption {
	return func(c *check) {
		if n > 0 {
			c.successThreshold = n
		}
	}
}

// Optional reports the check as degraded instead of failing the probe.
func Optional() CheckOption {
	return func(c *check) { c.optional = true }
}

func newCheck(name string, timeout time.Duration, fn CheckFunc, opts []CheckOption) *check {
	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, o := range opts {
		o(c)
	}
	c.last.Store(&result{passing: true})
	return c
}

func (c *check) result() *result { return c.last.Load() }

// run polls the check once. Only one goroutine may call it at a time.
func (c *check) run(ctx context.Context, now func() time.Time) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := now()
	err := c.fn(ctx)
	end := now()

	passing := c.result().passing
	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= c.failureThreshold {
			passing = false
		}
	} else {
		c.fails = 0
		c.oks++
		if c.oks >= c.successThreshold {
			passing = true
		}
	}
	c.last.Store(&result{passing: passing, err: err, checkedAt: end, latency: end.Sub(start)})
}

// Health holds the probe checks and the manual readiness switch used during
// startup and graceful shutdown.
type Health struct {
	ready atomic.Bool
	now   func() time.Time

	mu     sync.RWMutex
	live   []*check
	deps   []*check
	cancel context.CancelFunc
}

// New returns a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{now: time.Now}
}

// AddLivenessCheck registers a check of the process itself, such as
// goroutine count or GC pauses.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newCheck(name, timeout, fn, opts))
}

// AddReadinessCheck registers a check of a dependency needed to serve
// orders, such as PostgreSQL or the Redis cart store.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps = append(h.deps, newCheck(name, timeout, fn, opts))
}

func (h *Health) snapshot(readiness bool) []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if readiness {
		return slices.Clone(h.deps)
	}
	return slices.Clone(h.live)
}

// Start polls every registered check each interval until Stop or ctx ends.
// Checks run once immediately.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	all := slices.Concat(h.live, h.deps)
	h.mu.Unlock()

	for _, c := range all {
		go h.poll(ctx, c, interval)
	}
}

func (h *Health) poll(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		c.run(ctx, h.now)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts polling. It is idempotent.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness switch.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the switch is on and no required readiness check
// is failing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, c := range h.snapshot(true) {
		if !c.optional && !c.result().passing {
			return false
		}
	}
	return true
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, true, h.snapshot(false))
}

// ReadyEndpoint serves /readyz. A service switched off by SetReady(false)
// reports 503 even when every dependency is passing.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, h.ready.Load(), h.snapshot(true))
}

// writeReport writes the probe body:
//
//	{"status":"ok|degraded|unhealthy","ready":bool,"checks":{name:{...}}}
//
// The status code is 503 when switchedOn is false or a required check fails.
func writeReport(w http.ResponseWriter, switchedOn bool, checks []*check) {
	slices.SortFunc(checks, func(a, b *check) int { return cmp.Compare(a.name, b.name) })

	healthy, degraded := switchedOn, false
	for _, c := range checks {
		if c.result().passing {
			continue
		}
		if c.optional {
			degraded = true
		} else {
			healthy = false
		}
	}

	code, status := http.StatusOK, "ok"
	switch {
	case !healthy:
		code, status = http.StatusServiceUnavailable, "unhealthy"
	case degraded:
		status = "degraded"
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		e.Field("ready", func(e *jx.Encoder) { e.Bool(switchedOn) })
		if len(checks) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, c := range checks {
					e.Field(c.name, func(e *jx.Encoder) { encodeCheck(e, c) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func encodeCheck(e *jx.Encoder, c *check) {
	r := c.result()
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) {
			switch {
			case r.passing:
				e.Str("ok")
			case c.optional:
				e.Str("degraded")
			default:
				e.Str("failing")
			}
		})
		if r.err != nil {
			e.Field("error", func(e *jx.Encoder) { e.Str(r.err.Error()) })
		}
		if !r.checkedAt.IsZero() {
			e.Field("checked_at", func(e *jx.Encoder) { e.Str(r.checkedAt.UTC().Format(time.RFC3339)) })
			e.Field("latency_ms", func(e *jx.Encoder) { e.Int64(r.latency.Milliseconds()) })
		}
		if c.optional {
			e.Field("optional", func(e *jx.Encoder) { e.Bool(true) })
		}
	})
}
