package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/linkflow/internal/apperr"
	"github.com/selimozcann/linkflow/internal/httpclient"
	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/trace"
	"github.com/selimozcann/linkflow/internal/validate"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubTracer struct {
	err      error
	lastOpts trace.Options
}

func (s *stubTracer) Trace(ctx context.Context, target string, opts trace.Options) (model.Result, error) {
	s.lastOpts = opts
	if s.err != nil {
		return model.Result{}, s.err
	}
	return model.Result{
		Redirects:      []model.Hop{{Step: 1, Status: 200, URL: target, TimeMs: 3}},
		FinalURL:       target,
		TotalRedirects: 1,
	}, nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return e
}

func TestFollowSuccess(t *testing.T) {
	st := &stubTracer{}
	h := NewHandler(st, Config{}, quietLogger()).Routes()

	w := post(t, h, "/api/follow", `{"url":"https://example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res model.Result
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.FinalURL != "https://example.com" || res.TotalRedirects != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if st.lastOpts != trace.Full {
		t.Fatalf("expected full annotations, got %+v", st.lastOpts)
	}

	post(t, h, "/api/follow/basic", `{"url":"https://example.com"}`)
	if st.lastOpts != (trace.Options{}) {
		t.Fatalf("expected minimal variant, got %+v", st.lastOpts)
	}
}

func TestFollowErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing", apperr.InvalidInput("URL is required", nil), http.StatusBadRequest, "URL is required"},
		{"invalid", apperr.InvalidInput("Invalid URL", errors.New("parse")), http.StatusBadRequest, "Invalid URL"},
		{"blocked", apperr.BlockedTarget("Blocked URL"), http.StatusBadRequest, "Blocked URL"},
		{"timeout", apperr.Timeout("Request timed out", context.DeadlineExceeded), http.StatusInternalServerError, "Request timed out"},
		{"fetch", apperr.FetchFailed("Failed to fetch URL", errors.New("connection refused")), http.StatusInternalServerError, "Failed to fetch URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubTracer{err: tt.err}, Config{}, quietLogger()).Routes()
			w := post(t, h, "/api/follow", `{"url":"x"}`)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if e := decodeError(t, w); e.Error != tt.message {
				t.Fatalf("error = %q, want %q", e.Error, tt.message)
			}
		})
	}
}

func TestFollowFetchFailedDetails(t *testing.T) {
	h := NewHandler(&stubTracer{err: apperr.FetchFailed("Failed to fetch URL", errors.New("dial tcp: connection refused"))}, Config{}, quietLogger()).Routes()
	w := post(t, h, "/api/follow", `{"url":"https://example.com"}`)
	if e := decodeError(t, w); e.Details != "dial tcp: connection refused" {
		t.Fatalf("details = %q", e.Details)
	}
}

func TestFollowMethodNotAllowed(t *testing.T) {
	h := NewHandler(&stubTracer{}, Config{}, quietLogger()).Routes()
	req := httptest.NewRequest(http.MethodGet, "/api/follow", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestFollowInvalidJSON(t *testing.T) {
	h := NewHandler(&stubTracer{}, Config{}, quietLogger()).Routes()
	w := post(t, h, "/api/follow", "invalid json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestFollowRateLimit(t *testing.T) {
	h := NewHandler(&stubTracer{}, Config{RPS: 1, Burst: 2}, quietLogger()).Routes()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/follow", strings.NewReader(`{"url":"https://example.com"}`))
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/follow", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("second client limited: %d", w.Code)
	}
}

func TestSweep(t *testing.T) {
	h := NewHandler(&stubTracer{}, Config{RPS: 1, Burst: 1}, quietLogger())
	h.allow("203.0.113.1")
	h.allow("203.0.113.2")
	h.mu.Lock()
	h.visitors["203.0.113.1"].lastSeen = time.Now().Add(-time.Hour)
	h.mu.Unlock()

	if n := h.Sweep(time.Minute); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if _, ok := h.visitors["203.0.113.2"]; !ok {
		t.Fatalf("active visitor removed")
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&stubTracer{}, Config{}, quietLogger()).Routes()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestFollowEndToEnd(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/go" {
			http.Redirect(w, r, "/landing", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Server", "origin")
		_, _ = w.Write([]byte("landing"))
	}))
	defer origin.Close()

	tr := trace.New(httpclient.New(httpclient.Config{Timeout: 2 * time.Second}), trace.Config{},
		trace.WithValidator(validate.New(validate.AllowAllGuard{})),
		trace.WithLogger(quietLogger()))
	h := NewHandler(tr, Config{}, quietLogger()).Routes()

	w := post(t, h, "/api/follow", `{"url":"`+origin.URL+`/go"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"redirects", "finalUrl", "finalUrlDetails", "totalRedirects", "serverInfo", "safety", "analyzedAt"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q: %v", key, body)
		}
	}
	if body["finalUrl"] != origin.URL+"/landing" {
		t.Fatalf("finalUrl = %v", body["finalUrl"])
	}
	safety := body["safety"].(map[string]any)
	if safety["level"] != "caution" {
		t.Fatalf("safety level = %v", safety["level"])
	}
}
