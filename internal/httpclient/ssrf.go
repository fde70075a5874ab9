package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/selimozcann/linkflow/internal/util"
)

const lookupTimeout = 5 * time.Second

// ErrPrivateAddress is returned by the safe dialer for private targets.
var ErrPrivateAddress = errors.New("ssrf_blocked")

// resolvePublicIP returns the first non-private address for host.
func resolvePublicIP(ctx context.Context, host string) (net.IP, error) {
	h := strings.TrimSpace(host)
	if h == "" {
		return nil, fmt.Errorf("empty hostname")
	}
	if i := strings.IndexByte(h, '%'); i != -1 {
		h = h[:i]
	}
	if ip := net.ParseIP(h); ip != nil {
		if util.IsPrivateIP(ip) {
			return nil, fmt.Errorf("%w: host %q is private IP %s", ErrPrivateAddress, host, ip)
		}
		return ip, nil
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("DNS lookup failed for %q: %w", host, err)
	}
	for _, a := range ips {
		if a.IP != nil && !util.IsPrivateIP(a.IP) {
			return a.IP, nil
		}
	}
	return nil, fmt.Errorf("%w: %q resolves only to private addresses", ErrPrivateAddress, host)
}

// safeDialContext pins each connection to a resolved public IP so a name
// cannot be rebound to a private address between the check and the dial.
func safeDialContext(d *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid address %s", ErrPrivateAddress, addr)
		}
		lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
		defer cancel()
		ip, err := resolvePublicIP(lookupCtx, host)
		if err != nil {
			return nil, err
		}
		return d.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
	}
}
