// Package ratelimit provides a per-client token bucket limiter for
// abuse-prone endpoints such as login.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bissquit/stockroom/internal/pkg/httputil"
	"github.com/bissquit/stockroom/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per key. Stale buckets are evicted
// in the background so the map does not grow without bound; Close stops
// the eviction goroutine.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing limit events per second with the given
// burst, and starts the eviction loop.
func New(limit rate.Limit, burst int) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Close stops the eviction goroutine. The limiter itself stays usable.
// Safe to call more than once.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if time.Since(b.lastSeen) > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Middleware limits requests per client IP, responding 429 when the
// bucket is empty.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			metrics.LoginThrottled.Inc()
			httputil.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
