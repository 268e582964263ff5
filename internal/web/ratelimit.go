package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	mw "github.com/JonMunkholm/cruisecheck/internal/web/middleware"
	"golang.org/x/time/rate"
)

// rateLimiter holds one token bucket per client IP. Each bucket allows a
// burst of n requests and refills at n per window.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	burst    int
	every    time.Duration // refill interval of one token
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a limiter and starts its cleanup goroutine.
func newRateLimiter(n int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		burst:    n,
		every:    window / time.Duration(n),
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *rateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow takes a token from ip's bucket, reporting false when it is empty.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(rl.every.Seconds())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(mw.ClientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute before sending more requests",
				Code:    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
