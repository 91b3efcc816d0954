package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorStore keeps one token bucket per client IP and forgets idle ones.
type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func newVisitorStore(rps float64, burst int, ttl time.Duration) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *visitorStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if v, ok := s.visitors[ip]; ok {
		v.lastSeen = now
		return v.limiter
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.visitors[ip] = &visitor{limiter: l, lastSeen: now}
	return l
}

func (s *visitorStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, ip)
		}
	}
}

// RateLimit is a coarse per-IP token bucket in front of write routes. It
// sheds floods before they reach the Redis-backed submission limiter. Idle
// buckets are swept on every sweep interval of traffic.
func RateLimit(rps float64, burst int, l *slog.Logger) func(http.Handler) http.Handler {
	const sweepEvery = 3 * time.Minute
	store := newVisitorStore(rps, burst, sweepEvery)
	var (
		sweepMu   sync.Mutex
		lastSweep = time.Now()
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sweepMu.Lock()
			if time.Since(lastSweep) > sweepEvery {
				lastSweep = time.Now()
				go store.cleanup()
			}
			sweepMu.Unlock()

			ip := ClientIP(r)
			if !store.get(ip).Allow() {
				l.WarnContext(r.Context(), "edge rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteError(w, r, apperrors.TooManyRequests("too many requests"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
