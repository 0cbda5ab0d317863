package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"budgetwise/internal/log"
)

// RateLimiter allows a fixed number of requests per client per minute.
type RateLimiter struct {
	mu                sync.Mutex
	clients           map[string]*clientWindow
	requestsPerMinute int
	now               func() time.Time
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type clientWindow struct {
	start    time.Time
	requests int
}

// NewRateLimiter creates a limiter. Call Stop to end its cleanup goroutine.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		clients:           make(map[string]*clientWindow),
		requestsPerMinute: requestsPerMinute,
		now:               time.Now,
		stopCleanup:       make(chan struct{}),
	}
	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

// Allow reports whether another request from key fits in the current window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok || now.Sub(client.start) >= time.Minute {
		rl.clients[key] = &clientWindow{start: now, requests: 1}
		return true
	}

	client.requests++
	return client.requests <= rl.requestsPerMinute
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.Allow(ip) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "rate limit exceeded", log.FieldClientIP, ip)
			w.Header().Set("Retry-After", strconv.Itoa(60))
			writeJSONError(w, http.StatusTooManyRequests, "Too many requests.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActiveClients returns the number of currently tracked clients
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup drops clients whose window ended.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, client := range rl.clients {
		if now.Sub(client.start) >= time.Minute {
			delete(rl.clients, key)
		}
	}
}
