package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures a KeyedLimiter.
type LimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long a key may go unseen before its bucket is dropped.
	IdleTTL time.Duration
}

// KeyedLimiter keeps one token bucket per key (client IP or caller).
// Idle keys are swept lazily from Allow.
type KeyedLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	keys      map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(cfg LimiterConfig) *KeyedLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &KeyedLimiter{
		limit:     rate.Limit(cfg.RequestsPerSecond),
		burst:     cfg.Burst,
		ttl:       cfg.IdleTTL,
		now:       time.Now,
		keys:      make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Allow spends one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, b := range l.keys {
			if now.Sub(b.lastSeen) >= l.ttl {
				delete(l.keys, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.keys[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.keys[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Tracked reports how many keys currently hold a bucket.
func (l *KeyedLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// ByClientIP limits requests per client address.
func (l *KeyedLimiter) ByClientIP(next http.Handler) http.Handler {
	return l.middleware(next, func(r *http.Request) string {
		return clientIP(r)
	})
}

// ByCaller limits authenticated requests per token subject, falling back
// to the client address. It must run after JWTMiddleware.
func (l *KeyedLimiter) ByCaller(next http.Handler) http.Handler {
	return l.middleware(next, func(r *http.Request) string {
		if claims, ok := GetClaims(r.Context()); ok {
			return claims.UserID.String()
		}
		return clientIP(r)
	})
}

func (l *KeyedLimiter) middleware(next http.Handler, keyOf func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(keyOf(r)) {
			w.Header().Set("Retry-After", "1")
			writeAuthError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMITED")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return stripPort(strings.TrimSpace(first))
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
