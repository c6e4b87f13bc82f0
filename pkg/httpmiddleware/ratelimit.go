package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a keyed token bucket limiter.
type RateLimitConfig struct {
	// Max requests are admitted per Window on average.
	Max    int
	Window time.Duration
	// Burst is the bucket size. Defaults to Max.
	Burst int
	// Key picks the bucket for a request. Defaults to ClientIP.
	Key func(*http.Request) string
	// Message is the 429 error message.
	Message string
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key. A bucket idle for a full window
// has refilled, so evicting it is indistinguishable from keeping it.
type Limiter struct {
	cfg   RateLimitConfig
	every rate.Limit

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter creates a Limiter, filling in defaults for unset fields.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Max
	}
	if cfg.Key == nil {
		cfg.Key = ClientIP
	}
	if cfg.Message == "" {
		cfg.Message = "rate limit exceeded"
	}
	return &Limiter{
		cfg:     cfg,
		every:   rate.Limit(float64(cfg.Max) / cfg.Window.Seconds()),
		buckets: make(map[string]*bucket),
	}
}

// take consumes one token from key's bucket. When the bucket is empty it
// reports how long until a token is available.
func (l *Limiter) take(key string, now time.Time) (left int, wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, found := l.buckets[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(l.every, l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.seen = now

	if b.lim.AllowN(now, 1) {
		return int(b.lim.TokensAt(now)), 0, true
	}
	r := b.lim.ReserveN(now, 1)
	wait = r.DelayFrom(now)
	r.CancelAt(now)
	return 0, wait, false
}

// Evict drops buckets untouched since before now minus one window and
// returns how many were removed.
func (l *Limiter) Evict(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= l.cfg.Window {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Run evicts idle buckets every other window until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Evict(now)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Admitted responses carry X-RateLimit-Limit and
// X-RateLimit-Remaining.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			left, wait, ok := l.take(l.cfg.Key(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, l.cfg.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit builds a Limiter that evicts idle buckets until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := NewLimiter(cfg)
	go l.Run(ctx)
	return l.Middleware()
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the host
// part of RemoteAddr, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
