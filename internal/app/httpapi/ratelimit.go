package httpapi

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// rateLimiter throttles requests per caller identity, falling back to the
// remote address for anonymous reads.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

func newRateLimiter(requestsPerSecond, burst int, log *logger.Logger) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
	}
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
		// Bound the map so abandoned callers cannot grow it forever.
		if len(rl.limiters) > 10000 {
			rl.limiters = map[string]*rate.Limiter{key: limiter}
		}
	}
	return limiter
}

func (rl *rateLimiter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := caller(r)
		if key == "" {
			key = r.RemoteAddr
		}

		if !rl.limiter(key).Allow() {
			rl.log.WithField("caller", key).
				WithField("path", r.URL.Path).
				Warn("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
