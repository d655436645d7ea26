package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxBodyBytes         int64 = 1 << 20
	defaultRequestsPerMin             = 60
	defaultSubscribeCallsPerMin       = 5
)

// HTTPHandlerConfig guards the streamable HTTP transport. RateLimitPerMin
// applies to every request from a client address.
type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// errorBody matches the {"error": "..."} replies of the REST API.
type errorBody struct {
	Error string `json:"error"`
}

func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	limiter := newRateLimiter(cfg.RateLimitPerMin, defaultRequestsPerMin, time.Now)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if msg, status := checkBearer(r, cfg.AuthToken); status != 0 {
			if status == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pricecast"`)
			}
			writeError(w, status, msg)
			return
		}
		if !limiter.Allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests, try again in a minute")
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		base.ServeHTTP(w, r)
	})
}

// checkBearer returns a zero status when the request carries the expected token.
func checkBearer(r *http.Request, want string) (string, int) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "missing bearer token", http.StatusUnauthorized
	}
	provided = strings.TrimSpace(provided)
	if want == "" || provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(want)) != 1 {
		return "invalid bearer token", http.StatusForbidden
	}
	return "", 0
}

func clientAddr(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// rateLimiter is a per-key token bucket refilled at perMin tokens a minute.
type rateLimiter struct {
	mu      sync.Mutex
	perSec  float64
	burst   float64
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newRateLimiter(perMin, fallback int, now func() time.Time) *rateLimiter {
	if perMin <= 0 {
		perMin = fallback
	}
	return &rateLimiter{
		perSec:  float64(perMin) / 60,
		burst:   float64(perMin),
		now:     now,
		buckets: make(map[string]*bucket),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key == "" {
		key = "default"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = min(l.burst, b.tokens+elapsed*l.perSec)
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
