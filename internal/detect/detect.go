// Package detect assigns an advisory safety level to a destination URL.
package detect

import (
	"net/url"
	"strings"

	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/util"
)

// Verdict messages.
const (
	MsgSafe       = "Known trusted domain"
	MsgSuspicious = "Potentially suspicious domain"
	MsgInsecure   = "Not using HTTPS"
	MsgUnknown    = "Unknown domain - verify before visiting"
	MsgUnanalyzed = "Could not analyze URL"
)

// Rules is the data a Classifier evaluates. A Classifier keeps its own copy,
// so callers may reuse or modify a Rules value after construction.
type Rules struct {
	SafeDomains        []string
	SuspiciousTLDs     []string
	SuspiciousKeywords []string
	SecureScheme       string
}

// DefaultRules returns the built-in allow list and suspicious signals.
func DefaultRules() Rules {
	return Rules{
		SafeDomains: []string{
			"google.com",
			"youtube.com",
			"facebook.com",
			"twitter.com",
			"x.com",
			"instagram.com",
			"linkedin.com",
			"github.com",
			"microsoft.com",
			"apple.com",
			"amazon.com",
			"wikipedia.org",
			"reddit.com",
			"netflix.com",
			"spotify.com",
		},
		SuspiciousTLDs:     []string{"ru", "cn", "tk", "ml", "ga", "cf", "gq"},
		SuspiciousKeywords: []string{"phishing", "malware", "hack", "virus"},
		SecureScheme:       "https",
	}
}

// Classifier applies Rules to final URLs.
type Classifier struct {
	rules Rules
}

// NewClassifier builds a Classifier from rules. An empty SecureScheme
// defaults to https.
func NewClassifier(r Rules) *Classifier {
	c := Rules{
		SafeDomains:        lowerAll(r.SafeDomains),
		SuspiciousTLDs:     lowerAll(r.SuspiciousTLDs),
		SuspiciousKeywords: lowerAll(r.SuspiciousKeywords),
		SecureScheme:       strings.ToLower(r.SecureScheme),
	}
	if c.SecureScheme == "" {
		c.SecureScheme = "https"
	}
	return &Classifier{rules: c}
}

// Classify returns the verdict for raw. The first matching rule wins:
// allow list, suspicious signals, insecure scheme, then unknown.
func (c *Classifier) Classify(raw string) model.Verdict {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return model.Verdict{Level: model.LevelWarning, Message: MsgUnanalyzed}
	}
	host := strings.ToLower(u.Hostname())

	for _, d := range c.rules.SafeDomains {
		if util.MatchesDomain(host, d) {
			return model.Verdict{Level: model.LevelSafe, Message: MsgSafe}
		}
	}
	if c.suspicious(host) {
		return model.Verdict{Level: model.LevelWarning, Message: MsgSuspicious}
	}
	if strings.ToLower(u.Scheme) != c.rules.SecureScheme {
		return model.Verdict{Level: model.LevelCaution, Message: MsgInsecure}
	}
	return model.Verdict{Level: model.LevelUnknown, Message: MsgUnknown}
}

func (c *Classifier) suspicious(host string) bool {
	for _, tld := range c.rules.SuspiciousTLDs {
		if util.HasTLD(host, tld) {
			return true
		}
	}
	for _, kw := range c.rules.SuspiciousKeywords {
		if kw != "" && strings.Contains(host, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
