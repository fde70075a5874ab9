package util

import "strings"

// MatchesDomain reports whether host equals domain or is a subdomain of it.
// Both are compared case-insensitively.
func MatchesDomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(domain)
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// HasTLD reports whether host ends in the given top-level label.
func HasTLD(host, tld string) bool {
	tld = strings.TrimPrefix(strings.ToLower(tld), ".")
	if tld == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(host, ".")), "."+tld)
}

// BaseDomain returns the last two labels of host. It is a cheap stand-in
// for eTLD+1 and is wrong for multi-label suffixes such as co.uk.
func BaseDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
