// Package api exposes the quote, availability and booking endpoints over
// plain net/http.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"montafix/internal/database"
	"montafix/internal/models"
	"montafix/internal/notify"
	"montafix/internal/wizard"
)

// CalendarSource serves the availability calendar, possibly through a cache.
type CalendarSource interface {
	GetCalendar(ctx context.Context) (models.Calendar, error)
	Invalidate(ctx context.Context)
}

// HTTPServer hosts the public wizard API and the staff admin API.
type HTTPServer struct {
	db       *database.DB
	calendar CalendarSource
	sessions *wizard.SessionStore
	fsm      *wizard.FSM
	notifier notify.Notifier
	apiKey   string
	log      *zerolog.Logger

	limiters *rateLimiterStore
	server   *http.Server
}

// Options configures the HTTP server.
type Options struct {
	Port              int
	APIKey            string
	RequestsPerMinute int
	Burst             int
}

// NewHTTPServer wires the handlers and middleware.
func NewHTTPServer(db *database.DB, calendar CalendarSource, sessions *wizard.SessionStore, notifier notify.Notifier, opts Options, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		db:       db,
		calendar: calendar,
		sessions: sessions,
		fsm:      wizard.NewFSM(),
		notifier: notifier,
		apiKey:   opts.APIKey,
		log:      logger,
		limiters: newRateLimiterStore(opts.RequestsPerMinute, opts.Burst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quote", s.rateLimit(s.handleQuote))
	mux.HandleFunc("/api/v1/slots", s.rateLimit(s.handleSlots))
	mux.HandleFunc("/api/v1/availability", s.rateLimit(s.handleAvailability))
	mux.HandleFunc("/api/v1/availability/dates", s.rateLimit(s.requireAPIKey(s.handleAvailabilityDates)))
	mux.HandleFunc("/api/v1/availability/slots", s.rateLimit(s.requireAPIKey(s.handleAvailabilitySlots)))
	mux.HandleFunc("/api/v1/bookings", s.rateLimit(s.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", s.rateLimit(s.requireAPIKey(s.handleBookingStatus)))
	mux.HandleFunc("/api/v1/bookings/export", s.rateLimit(s.requireAPIKey(s.handleBookingsExport)))
	mux.HandleFunc("/api/v1/sessions", s.rateLimit(s.handleSessions))
	mux.HandleFunc("/api/v1/sessions/", s.rateLimit(s.handleSessionByToken))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving. Blocks until the server stops.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireAPIKey guards staff endpoints with the X-Api-Key header.
func (s *HTTPServer) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.Header.Get("X-Api-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

func newRateLimiterStore(requestsPerMinute, burst int) *rateLimiterStore {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 120
	}
	if burst <= 0 {
		burst = 20
	}
	return &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
	}
}

// getLimiter returns the rate limiter for a given IP, creating one if it
// doesn't exist.
func (rs *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	limiter, exists := rs.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rs.limit, rs.burst)
		rs.limiters[ip] = limiter
	}
	return limiter
}

// rateLimit rejects clients that exceed the per-IP request budget.
func (s *HTTPServer) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiters.getLimiter(ip).Allow() {
			s.log.Warn().Str("ip", ip).Msg("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleHealth responds as long as the process is up.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks the database connection.
func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
