package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Config holds settings for the HTTP client.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Proxy     func(*http.Request) (*url.URL, error)
	Headers   http.Header
	Insecure  bool
	// SafeDial resolves every dialed host and refuses private addresses.
	SafeDial bool
}

// headerRoundTripper wraps a base RoundTripper to inject the user agent and
// extra headers. It never retries.
type headerRoundTripper struct {
	base      http.RoundTripper
	userAgent string
	headers   http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := h.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	for k, vs := range h.headers {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if h.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", h.userAgent)
	}
	return base.RoundTrip(r)
}

// New returns a configured HTTP client with manual redirect handling.
func New(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               cfg.Proxy,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.Insecure}, // #nosec G402 -- opt-in flag
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: cfg.Timeout,
	}
	if cfg.SafeDial {
		transport.DialContext = safeDialContext(dialer)
	}
	return Wrap(transport, cfg)
}

// Wrap builds a client around an existing transport. Redirects are never
// followed automatically; the caller sees every 3xx response.
func Wrap(base http.RoundTripper, cfg Config) *http.Client {
	return &http.Client{
		Transport: &headerRoundTripper{
			base:      base,
			userAgent: cfg.UserAgent,
			headers:   cfg.Headers,
		},
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
