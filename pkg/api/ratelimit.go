package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cuemby/storefront/pkg/metrics"
	"golang.org/x/time/rate"
)

// ipLimiter enforces a per-client-IP request budget over a sliding window.
// Failed requests are not counted, so a client probing validation errors
// does not burn its budget (skip-failed).
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	name     string
}

// newIPLimiter creates a limiter allowing max requests per window per IP
func newIPLimiter(name string, window time.Duration, max int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		name:     name,
	}
}

func (l *ipLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// middleware rejects over-budget requests with RATE_LIMIT_EXCEEDED. The
// budget is checked before the handler runs and consumed only after it
// answers successfully, so error responses never count (skip-failed).
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := l.limiterFor(clientIP(r))

		if lim.Tokens() < 1 {
			metrics.RateLimitRejections.WithLabelValues(l.name).Inc()
			writeError(w, NewError(http.StatusTooManyRequests, CodeRateLimitExceeded,
				"Too many requests, please try again later"))
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.status < http.StatusBadRequest {
			lim.AllowN(time.Now(), 1)
		}
	})
}

// clientIP extracts the client address set by the RealIP middleware
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
