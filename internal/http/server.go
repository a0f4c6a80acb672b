// Package http provides the JSON surface over the stores, aggregator
// and exporters: five authenticated views plus register/login/logout.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/session"
)

// Options tunes the server's middleware and caching.
type Options struct {
	// RateLimitPerMinute caps mutating requests per client IP.
	// Zero means the default of 60.
	RateLimitPerMinute int
	// SummaryCacheTTL bounds how stale a cached analytics summary may
	// get. Zero means the default of 5 minutes.
	SummaryCacheTTL time.Duration
}

type Server struct {
	http.Server
	store    ledger.TransactionStore
	creds    ledger.CredentialStore
	sessions *session.Manager

	// singleSession marks the memory variant: no accounts, every
	// request runs as the fixed anonymous owner.
	singleSession bool

	rateLimiter *rateLimiter

	// Per-owner analytics cache, invalidated after every write so a
	// refresh after a command always sees its effect.
	summaryCache *cache.LRU[analytics.Summary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. A nil creds store selects the single-session memory variant:
// auth endpoints are not mounted and every request is authenticated as
// the anonymous owner.
func NewServer(addr string, store ledger.TransactionStore, creds ledger.CredentialStore, opts Options) *Server {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		creds:            creds,
		sessions:         session.NewManager(),
		singleSession:    creds == nil,
		rateLimiter:      newRateLimiter(opts.RateLimitPerMinute),
		summaryCache:     cache.NewLRU[analytics.Summary](100, opts.SummaryCacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	if !s.singleSession {
		mux.HandleFunc("/api/register", s.withMiddleware(s.handleRegister))
		mux.HandleFunc("/api/login", s.withMiddleware(s.handleLogin))
		mux.HandleFunc("/api/logout", s.withMiddleware(s.handleLogout))
	}

	mux.HandleFunc("/api/home", s.withMiddleware(s.requireSession(s.handleHome)))
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.requireSession(s.handleTransactions)))
	mux.HandleFunc("/api/transactions/", s.withMiddleware(s.requireSession(s.handleDeleteTransaction)))
	mux.HandleFunc("/api/summary", s.withMiddleware(s.requireSession(s.handleSummary)))
	mux.HandleFunc("/api/export", s.withMiddleware(s.requireSession(s.handleExport)))

	return s
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.limit
}

// startCacheCleanup periodically drops expired summary entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Summary cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting for mutating
// methods, request IDs, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// summaryCacheKey is the per-owner key for cached analytics.
func summaryCacheKey(owner int64) string {
	return strconv.FormatInt(owner, 10)
}

// invalidateSummary drops the owner's cached summary. Called after
// every add and delete so the next analytics read recomputes.
func (s *Server) invalidateSummary(owner int64) {
	s.summaryCache.Delete(summaryCacheKey(owner))
}

// ownerSummary returns the owner's summary, computing and caching it on
// a miss.
func (s *Server) ownerSummary(ctx context.Context, owner int64) (analytics.Summary, error) {
	key := summaryCacheKey(owner)
	if sum, found := s.summaryCache.Get(key); found {
		slog.DebugContext(ctx, "Summary cache hit", "owner", owner)
		return sum, nil
	}

	snapshot, err := s.store.List(ctx, owner)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("list transactions for summary (owner=%d): %w", owner, err)
	}
	sum := analytics.Summarize(snapshot)
	s.summaryCache.Set(key, sum)
	slog.DebugContext(ctx, "Summary cached", "owner", owner, "transactions", len(snapshot))
	return sum, nil
}
