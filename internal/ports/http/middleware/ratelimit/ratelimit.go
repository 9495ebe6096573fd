package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a client bucket is kept without requests.
const DefaultIdleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address. Forwarding headers are
// only honoured when the service runs behind a trusted proxy; otherwise any client
// could pick its own bucket.
type IPRateLimiter struct {
	clients    map[string]*client
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	trustProxy bool
	idleTTL    time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func NewIPRateLimiter(requestsPerMinute int, trustProxy bool) *IPRateLimiter {
	return &IPRateLimiter{
		clients:    make(map[string]*client),
		rate:       rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:      requestsPerMinute,
		trustProxy: trustProxy,
		idleTTL:    DefaultIdleTTL,
		now:        time.Now,
	}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	c, exists := l.clients[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// sweep drops the buckets of clients idle for longer than the TTL.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

// Clients returns the number of tracked client buckets.
func (l *IPRateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := l.limiter(l.clientIP(r))

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		if !limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) clientIP(r *http.Request) string {
	if l.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
