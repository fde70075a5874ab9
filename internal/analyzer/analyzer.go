// Package analyzer extracts structural facts from URLs seen during a walk.
package analyzer

import (
	"net/url"
	"strings"

	"github.com/selimozcann/linkflow/internal/model"
)

// Facts decomposes raw into scheme, host, port and path. It never fails
// loudly: anything that does not parse as an absolute URL yields false.
func Facts(raw string) (*model.URLFacts, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	return FactsOf(u), true
}

// FactsOf decomposes an already parsed URL.
func FactsOf(u *url.URL) *model.URLFacts {
	scheme := strings.ToLower(u.Scheme)
	secure := scheme == "https"
	port := u.Port()
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}
	path := u.EscapedPath()
	if path == "" && u.Host != "" {
		path = "/"
	}
	return &model.URLFacts{
		Protocol: scheme,
		Hostname: strings.ToLower(u.Hostname()),
		Port:     port,
		Pathname: path,
		IsHTTPS:  secure,
	}
}
