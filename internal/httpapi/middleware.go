package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	applog "kopilka/internal/log"
)

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// clientIP resolves the caller address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// traceMiddleware tags every request with an ID, stores a request-scoped
// logger in the context for handlers to pick up via log.FromContext, and
// logs start and completion. The completion level follows the response
// status class.
func traceMiddleware(logger *applog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := generateRequestID()
			reqLogger := logger.With(applog.FieldRequestID, requestID)

			ctx := context.WithValue(r.Context(), applog.LoggerContextKey, reqLogger)
			r = r.WithContext(ctx)

			reqLogger.InfoContext(ctx, "HTTP request started",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldQuery, r.URL.RawQuery,
				applog.FieldClientIP, clientIP(r),
				applog.FieldUserAgent, r.Header.Get("User-Agent"))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			logFn := reqLogger.InfoContext
			if rw.statusCode >= 500 {
				logFn = reqLogger.ErrorContext
			} else if rw.statusCode >= 400 {
				logFn = reqLogger.WarnContext
			}
			logFn(ctx, "HTTP request completed",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldStatusCode, rw.statusCode,
				applog.FieldDuration, duration.Milliseconds())
		})
	}
}

// rateLimiter caps requests per client IP within a fixed one-minute window
// keyed to the client's first request in the window. Denied requests do not
// move the window, so a throttled client regains quota once it expires.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastPrune time.Time

	requestsPerMinute int
	pruneInterval     time.Duration
	now               func() time.Time
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimiter{
		clients:           make(map[string]*clientWindow),
		requestsPerMinute: requestsPerMinute,
		pruneInterval:     5 * time.Minute,
		now:               time.Now,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	client, exists := rl.clients[ip]
	if !exists || now.Sub(client.windowStart) >= time.Minute {
		rl.clients[ip] = &clientWindow{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	return client.requests <= rl.requestsPerMinute
}

// prune drops expired client windows so the map does not grow with every
// distinct client ever seen. Called under mu.
func (rl *rateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.pruneInterval {
		return
	}
	rl.lastPrune = now
	for ip, client := range rl.clients {
		if now.Sub(client.windowStart) >= time.Minute {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeaders sets the baseline hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
