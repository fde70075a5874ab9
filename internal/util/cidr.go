package util

import (
	"net"
	"strings"
)

var privateCIDRs []*net.IPNet

func init() {
	cidrs := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		privateCIDRs = append(privateCIDRs, n)
	}
}

// IsPrivateIP returns true for loopback, RFC 1918, link-local, unspecified
// and IPv6 unique-local addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsUnspecified() || ip.IsLoopback() {
		return true
	}
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IsInternalHost returns true if the host is considered internal or loopback.
// Only literal IPs are range-checked; names are not resolved.
func IsInternalHost(host string) bool {
	host = strings.ToLower(strings.Trim(host, "[]"))
	if i := strings.IndexByte(host, '%'); i != -1 {
		host = host[:i]
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return IsPrivateIP(ip)
	}
	return false
}
