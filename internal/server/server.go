// Package server exposes the redirect walk over HTTP as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/selimozcann/linkflow/internal/apperr"
	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/trace"
)

const maxBodyBytes = 16 << 10

// Tracer is the operation the handlers expose.
type Tracer interface {
	Trace(ctx context.Context, target string, opts trace.Options) (model.Result, error)
}

// FollowRequest is the POST body.
type FollowRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is the error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Config holds per-client rate limiting. RPS 0 disables limiting.
type Config struct {
	RPS   float64
	Burst int
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	tracer Tracer
	log    logrus.FieldLogger
	cfg    Config

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewHandler creates a new HTTP handler.
func NewHandler(t Tracer, cfg Config, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{tracer: t, log: log, cfg: cfg, visitors: make(map[string]*visitor)}
}

// Routes registers the endpoints on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/follow", h.follow(trace.Full))
	mux.HandleFunc("/api/follow/basic", h.follow(trace.Options{}))
	mux.HandleFunc("/health", h.HandleHealth)
	return h.logRequests(mux)
}

func (h *Handler) follow(opts trace.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
			return
		}
		ip := clientIP(r)
		if !h.allow(ip) {
			h.log.WithField("client_ip", ip).Warn("rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Rate limit exceeded"})
			return
		}

		var req FollowRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON payload", Details: err.Error()})
			return
		}

		res, err := h.tracer.Trace(r.Context(), req.URL, opts)
		if err != nil {
			status, body := errorResponse(err)
			h.log.WithFields(logrus.Fields{"client_ip": ip, "target": req.URL, "status": status}).WithError(err).Info("follow failed")
			writeJSON(w, status, body)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// errorResponse maps a walk error to an HTTP status and body. Caller input
// problems are 400, network failures 500.
func errorResponse(err error) (int, ErrorResponse) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal error", Details: err.Error()}
	}
	switch ae.Kind {
	case apperr.KindInvalidInput, apperr.KindBlockedTarget:
		return http.StatusBadRequest, ErrorResponse{Error: ae.Msg}
	case apperr.KindTimeout:
		return http.StatusInternalServerError, ErrorResponse{Error: "Request timed out", Details: causeOf(ae)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch URL", Details: causeOf(ae)}
	}
}

func causeOf(e *apperr.Error) string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (h *Handler) allow(ip string) bool {
	if h.cfg.RPS <= 0 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	v, ok := h.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(h.cfg.RPS), h.cfg.Burst)}
		h.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep drops limiter state for clients idle longer than idle.
func (h *Handler) Sweep(idle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	cutoff := time.Now().Add(-idle)
	for ip, v := range h.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(h.visitors, ip)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (h *Handler) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.Sweep(2 * interval); n > 0 {
				h.log.WithField("removed", n).Debug("swept idle rate limiters")
			}
		}
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"client_ip":  clientIP(r),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then
// the connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
