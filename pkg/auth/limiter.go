package auth

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"noticeboard/pkg/utils"
)

// limiterPool keeps one token bucket per caller key so one noisy client
// cannot starve the rest.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &limiterPool{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.rps, p.burst)
		p.limiters[key] = l
	}
	return l
}

// Allow reports whether the caller identified by key may proceed.
func (p *limiterPool) Allow(key string) bool { return p.get(key).Allow() }

// RateLimiter throttles requests per caller. Authenticated callers are
// keyed by identity, anonymous ones by client IP.
type RateLimiter struct {
	pool *limiterPool
}

// NewRateLimiter builds a per-caller limiter with the given refill rate and
// burst. Zero values fall back to conservative defaults.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{pool: newLimiterPool(rps, burst)}
}

// Middleware rejects callers that exceed their budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.pool.Allow(key) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if id := IdentityFromContext(r.Context()); id.ID != "" {
		return "id:" + id.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
