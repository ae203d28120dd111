package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/gitify-app/updater/client/server/util"
)

const (
	defaultRequestsPerMinute = 30
	defaultBurst             = 5
	defaultIdleTTL           = 10 * time.Minute
)

// RateLimiterConfig sets the request budget of a client on a single route
type RateLimiterConfig struct {
	RequestsPerMinute float64
	Burst             int
	// IdleTTL drops the budget of a client that stayed quiet this long
	IdleTTL time.Duration
	Clock   clockwork.Clock
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// APIRateLimiter keeps a token bucket per client address and route, so a client
// hammering checks still gets to install
type APIRateLimiter struct {
	perSecond rate.Limit
	burst     int
	idleTTL   time.Duration
	clock     clockwork.Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewAPIRateLimiter(cfg *RateLimiterConfig) *APIRateLimiter {
	var c RateLimiterConfig
	if cfg != nil {
		c = *cfg
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = defaultRequestsPerMinute
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = defaultIdleTTL
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}

	return &APIRateLimiter{
		perSecond: rate.Limit(c.RequestsPerMinute / 60),
		burst:     c.Burst,
		idleTTL:   c.IdleTTL,
		clock:     c.Clock,
		buckets:   make(map[string]*bucket),
		lastSweep: c.Clock.Now(),
	}
}

// Reserve takes a token for key. It returns zero when the request may proceed,
// otherwise the time until the next token.
func (rl *APIRateLimiter) Reserve(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return rl.idleTTL
	}
	if wait := r.DelayFrom(now); wait > 0 {
		// the token was not spent
		r.CancelAt(now)
		return wait
	}
	return 0
}

// sweep drops idle buckets, at most once per idle TTL. mu must be held.
func (rl *APIRateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now

	for key, b := range rl.buckets {
		if now.Sub(b.seen) >= rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
}

// Middleware answers 429 with a Retry-After header once the client used up its budget on the route
func (rl *APIRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r) + " " + r.Method + " " + r.URL.Path
		if wait := rl.Reserve(key); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			util.WriteErrorResponse("rate limit exceeded, please try again later", http.StatusTooManyRequests, w)
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
