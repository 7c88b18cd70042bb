package restapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"combiroute.fr/internal/clock"
)

// rateLimitClient tracks the limiter and its last usage time, so inactive
// clients can be removed without disrupting active ones.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimitMiddleware provides per-API-key rate limiting.
type RateLimitMiddleware struct {
	limiters  map[string]*rateLimitClient
	mu        sync.RWMutex
	rateLimit rate.Limit
	burstSize int
	clock     clock.Clock
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewRateLimitMiddleware creates a limiter allowing ratePerInterval requests
// per interval per API key, with the same burst allowance. A negative rate
// disables limiting; zero blocks everything.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, clk clock.Clock) *RateLimitMiddleware {
	var limit rate.Limit
	switch {
	case ratePerInterval < 0:
		limit = rate.Inf
	case ratePerInterval == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(ratePerInterval))
	}

	if clk == nil {
		clk = clock.RealClock{}
	}

	middleware := &RateLimitMiddleware{
		limiters:  make(map[string]*rateLimitClient),
		rateLimit: limit,
		burstSize: ratePerInterval,
		clock:     clk,
		stopChan:  make(chan struct{}),
	}

	go middleware.cleanupLoop(10 * time.Minute)

	return middleware
}

// Handler returns the HTTP middleware handler function.
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.URL.Query().Get("key")
			if apiKey == "" {
				apiKey = "anonymous"
			}

			if !rl.getLimiter(apiKey).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code": http.StatusTooManyRequests,
					"text": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getLimiter gets or creates a rate limiter for the given API key
// and updates the last usage timestamp.
func (rl *RateLimitMiddleware) getLimiter(apiKey string) *rate.Limiter {
	rl.mu.RLock()
	if client, exists := rl.limiters[apiKey]; exists {
		client.lastSeen.Store(rl.clock.Now().UnixNano())
		rl.mu.RUnlock()
		return client.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Another goroutine might have created it while we were waiting.
	if client, exists := rl.limiters[apiKey]; exists {
		client.lastSeen.Store(rl.clock.Now().UnixNano())
		return client.limiter
	}

	client := &rateLimitClient{limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize)}
	client.lastSeen.Store(rl.clock.Now().UnixNano())
	rl.limiters[apiKey] = client

	return client.limiter
}

// cleanupLoop drops limiters that have been idle for an hour.
func (rl *RateLimitMiddleware) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.clock.Now().Add(-time.Hour).UnixNano()
			rl.mu.Lock()
			for key, client := range rl.limiters {
				if client.lastSeen.Load() < cutoff {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop shuts down the cleanup goroutine. Safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}
