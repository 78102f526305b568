package dashboard

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestLogger logs one line per request with its status, size and duration
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// clientLimiter tracks one token bucket per client address.
type clientLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	rate       rate.Limit
	burst      int
}

func newClientLimiter(perMinute, burst int) *clientLimiter {
	if burst <= 0 {
		burst = max(1, perMinute/10)
	}
	return &clientLimiter{
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		rate:       rate.Limit(float64(perMinute) / 60.0),
		burst:      burst,
	}
}

func (c *clientLimiter) Allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, exists := c.limiters[client]
	if !exists {
		limiter = rate.NewLimiter(c.rate, c.burst)
		c.limiters[client] = limiter
	}
	c.lastAccess[client] = time.Now()
	return limiter.Allow()
}

// Evict drops limiters of clients not seen within maxAge.
func (c *clientLimiter) Evict(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	for client, last := range c.lastAccess {
		if last.Before(cutoff) {
			delete(c.limiters, client)
			delete(c.lastAccess, client)
		}
	}
}

// RateLimit rejects with 429 a client exceeding perMinute requests.
// Clients are keyed by RemoteAddr, so it belongs after chimw.RealIP.
func RateLimit(perMinute, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := newClientLimiter(perMinute, burst)
	var requests int

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if host, _, err := net.SplitHostPort(client); err == nil {
				client = host
			}

			limiter.mu.Lock()
			requests++
			evict := requests%1000 == 0
			limiter.mu.Unlock()
			if evict {
				limiter.Evict(10 * time.Minute)
			}

			if !limiter.Allow(client) {
				logger.Warn("rate limit exceeded", zap.String("client", client), zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON writes data with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes {"error": message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
