package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHeaderInjection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("expected header injected")
		}
		if r.Header.Get("User-Agent") != "linkflow-test/1.0" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	client := New(Config{
		Timeout:   time.Second,
		UserAgent: "linkflow-test/1.0",
		Headers:   http.Header{"X-Test": []string{"1"}},
	})
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestRedirectNotFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		t.Errorf("client followed redirect to %s", r.URL.Path)
	}))
	defer srv.Close()

	resp, err := New(Config{Timeout: time.Second}).Get(srv.URL + "/start")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected raw 302, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "/end" {
		t.Fatalf("unexpected Location %q", resp.Header.Get("Location"))
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := New(Config{Timeout: time.Second}).Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestSafeDialRefusesLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request must not reach loopback server")
	}))
	defer srv.Close()

	client := New(Config{Timeout: time.Second, SafeDial: true})
	_, err := client.Get(srv.URL)
	if err == nil {
		t.Fatalf("expected dial to be refused")
	}
	if !errors.Is(err, ErrPrivateAddress) {
		t.Fatalf("expected ErrPrivateAddress, got %v", err)
	}
}

func TestResolvePublicIPLiteral(t *testing.T) {
	ip, err := resolvePublicIP(context.Background(), "93.184.216.34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ip.Equal(net.ParseIP("93.184.216.34")) {
		t.Fatalf("unexpected ip %s", ip)
	}
	_, err = resolvePublicIP(context.Background(), "10.0.0.1")
	if err == nil || !strings.Contains(err.Error(), "private") {
		t.Fatalf("expected private address error, got %v", err)
	}
}
