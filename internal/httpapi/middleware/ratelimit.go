package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiter keeps one token bucket per client and forgets clients idle for ttl.
type limiter struct {
	every rate.Limit
	burst int
	ttl   time.Duration

	mu     sync.Mutex
	byIP   map[string]*visitor
	lastGC time.Time
}

func newLimiter(perMin, burst int, ttl time.Duration) *limiter {
	return &limiter{
		every: rate.Limit(float64(perMin) / 60),
		burst: max(burst, 1),
		ttl:   ttl,
		byIP:  make(map[string]*visitor),
	}
}

func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastGC) <= l.ttl {
		return
	}
	for ip, v := range l.byIP {
		if now.Sub(v.seen) > l.ttl {
			delete(l.byIP, ip)
		}
	}
	l.lastGC = now
}

// reserve takes one token for ip. When none is available it returns false and
// how long the client should wait.
func (l *limiter) reserve(ip string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	v, ok := l.byIP[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		l.byIP[ip] = v
	}
	v.seen = now

	res := v.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimit limits each client IP to reqPerMin requests per minute with the
// given burst. reqPerMin <= 0 disables limiting. The client IP is the peer
// address, rewritten only by TrustedRealIP for trusted proxies.
func RateLimit(reqPerMin, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return passThrough
	}
	l := newLimiter(reqPerMin, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.reserve(clientIP(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				deny(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
