// Package http exposes the JSON API: shift lifecycle, fare and record
// entry, and the daily/monthly/annual summaries.
package http

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"taxidiario/internal/aggregate"
	"taxidiario/internal/core"
	applog "taxidiario/internal/log"
	"taxidiario/internal/report"
	"taxidiario/internal/services"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

// DayReader provides the per-day record reads behind the day detail
// view. *storage.SQLiteRepository satisfies it.
type DayReader interface {
	ShiftsByDate(ctx context.Context, day core.Date) ([]core.Shift, error)
	FaresByDate(ctx context.Context, day core.Date) ([]core.Fare, error)
}

type Server struct {
	http.Server
	shifts      *services.ShiftService
	fares       *services.FareService
	records     *services.RecordService
	engine      *aggregate.Engine
	days        DayReader
	reports     *report.ExcelWriter
	rateLimiter *rateLimiter

	// Rollups are recomputed from the day tables on demand; the
	// caches keep repeated dashboard reads cheap.
	dailyCache *lruCache[core.DailyTotals]
	monthCache *lruCache[core.MonthSummary]
	yearCache  *lruCache[core.YearSummary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

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
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
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

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, shifts *services.ShiftService, fares *services.FareService, records *services.RecordService, engine *aggregate.Engine, days DayReader, reports *report.ExcelWriter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		shifts:           shifts,
		fares:            fares,
		records:          records,
		engine:           engine,
		days:             days,
		reports:          reports,
		rateLimiter:      newRateLimiter(),
		dailyCache:       newLRUCache[core.DailyTotals](200, 2*time.Minute),
		monthCache:       newLRUCache[core.MonthSummary](100, 5*time.Minute),
		yearCache:        newLRUCache[core.YearSummary](10, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/shifts/open", s.withSecurityHeaders(s.handleOpenShift))
	mux.HandleFunc("/api/shifts/close", s.withSecurityHeaders(s.handleCloseShift))
	mux.HandleFunc("/api/shifts/delete", s.withSecurityHeaders(s.handleDeleteShift))
	mux.HandleFunc("/api/shifts/active", s.withSecurityHeaders(s.handleActiveShift))
	mux.HandleFunc("/api/shifts/day", s.withSecurityHeaders(s.handleDayDetail))

	mux.HandleFunc("/api/fares", s.withSecurityHeaders(s.handleCreateFare))
	mux.HandleFunc("/api/fares/delete", s.withSecurityHeaders(s.handleDeleteFare))
	mux.HandleFunc("/api/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("/api/income", s.withSecurityHeaders(s.handleCreateOtherIncome))

	mux.HandleFunc("/api/summary/daily", s.withSecurityHeaders(s.handleDailySummary))
	mux.HandleFunc("/api/summary/month", s.withSecurityHeaders(s.handleMonthSummary))
	mux.HandleFunc("/api/summary/year", s.withSecurityHeaders(s.handleYearSummary))
	mux.HandleFunc("/api/reports/month", s.withSecurityHeaders(s.handleMonthReport))

	// Every request flows through the logger chain: the base logger
	// lands in the context first, then the request-scoped one with the
	// request id attached. Handlers pick it up via applog.FromContext.
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP})
	s.Handler = applog.Middleware(logger)(applog.RequestIDMiddleware(requestIDForRequest)(mux))

	return s
}

// requestIDForRequest honors a caller-supplied X-Request-ID, minting
// one otherwise.
func requestIDForRequest(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

// startCacheCleanup runs periodic cleanup for the summary caches
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.dailyCache.CleanExpired() + s.monthCache.CleanExpired() + s.yearCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateSummaries drops cached rollups that cover the given day.
func (s *Server) invalidateSummaries(day core.Date) {
	s.dailyCache.Delete(day.IDSuffix())
	s.monthCache.Delete(monthKey(day.Year(), int(day.Month())))
	s.yearCache.Delete(yearKey(day.Year()))
}

// withSecurityHeaders adds security headers, rate limiting, and request logging
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutations only; summary reads are cached anyway.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
