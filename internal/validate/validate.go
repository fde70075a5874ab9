// Package validate rejects malformed or disallowed targets before any
// network access happens.
package validate

import (
	"net/url"
	"strings"

	"github.com/selimozcann/linkflow/internal/apperr"
	"github.com/selimozcann/linkflow/internal/util"
)

// HostGuard decides whether a hostname may be contacted.
type HostGuard interface {
	Blocked(hostname string) bool
}

// PrefixGuard blocks "localhost" and hostnames starting with 127., 192.168.
// or 10. It is a textual check on the hostname only: 169.254.x.x,
// 172.16.0.0/12, IPv6 loopback and names resolving to private ranges all
// pass. Use CIDRGuard for a stricter check.
type PrefixGuard struct{}

var blockedPrefixes = []string{"127.", "192.168.", "10."}

func (PrefixGuard) Blocked(hostname string) bool {
	h := strings.ToLower(hostname)
	if h == "localhost" {
		return true
	}
	for _, p := range blockedPrefixes {
		if strings.HasPrefix(h, p) {
			return true
		}
	}
	return false
}

// CIDRGuard applies the PrefixGuard rules and additionally range-checks
// literal IPs (loopback, RFC 1918, link-local, IPv6 ULA) and .internal names.
type CIDRGuard struct{}

func (CIDRGuard) Blocked(hostname string) bool {
	return PrefixGuard{}.Blocked(hostname) || util.IsInternalHost(hostname)
}

// AllowAllGuard blocks nothing. Intended for tests against loopback servers.
type AllowAllGuard struct{}

func (AllowAllGuard) Blocked(string) bool { return false }

// GuardFor maps a configured SSRF mode to a guard. Unknown modes fall back
// to PrefixGuard.
func GuardFor(mode string) HostGuard {
	switch strings.ToLower(mode) {
	case "strict":
		return CIDRGuard{}
	case "off":
		return AllowAllGuard{}
	default:
		return PrefixGuard{}
	}
}

// Validator parses target URLs and applies a HostGuard.
type Validator struct {
	Guard HostGuard
}

// New returns a Validator using guard, or PrefixGuard when guard is nil.
func New(guard HostGuard) *Validator {
	if guard == nil {
		guard = PrefixGuard{}
	}
	return &Validator{Guard: guard}
}

// Validate returns the parsed absolute http(s) URL for raw.
func (v *Validator) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.InvalidInput("URL is required", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid URL", err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return nil, apperr.InvalidInput("Invalid URL", nil)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, apperr.InvalidInput("Invalid URL", nil)
	}
	if err := v.Check(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Check applies only the host guard to an already parsed URL.
func (v *Validator) Check(u *url.URL) error {
	if v.Guard.Blocked(u.Hostname()) {
		return apperr.BlockedTarget("Blocked URL")
	}
	return nil
}
