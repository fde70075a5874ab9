package model

import (
	"fmt"
	"time"
)

// Hop represents a single request in a redirect chain.
type Hop struct {
	Step    int       `json:"step"`
	Status  int       `json:"status"`
	URL     string    `json:"url"`
	TimeMs  int64     `json:"timeMs"`
	Details *URLFacts `json:"details,omitempty"`
}

// URLFacts is the structural breakdown of a URL.
type URLFacts struct {
	Protocol string `json:"protocol"`
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
	Pathname string `json:"pathname"`
	IsHTTPS  bool   `json:"isHttps"`
}

// Level is the safety classification of a destination. Levels are ordered
// from least to most concerning.
type Level int

const (
	LevelSafe Level = iota
	LevelUnknown
	LevelCaution
	LevelWarning
)

var levelNames = [...]string{"safe", "unknown", "caution", "warning"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(levelNames) {
		return nil, fmt.Errorf("unknown safety level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(b []byte) error {
	for i, name := range levelNames {
		if name == string(b) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown safety level %q", string(b))
}

// Verdict is the advisory safety assessment of the final URL.
type Verdict struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// ServerInfo holds response metadata captured during the walk.
type ServerInfo struct {
	Server      string `json:"server"`
	ContentType string `json:"contentType"`
}

// Result is the complete output of one redirect walk.
type Result struct {
	Redirects       []Hop       `json:"redirects"`
	FinalURL        string      `json:"finalUrl"`
	FinalURLDetails *URLFacts   `json:"finalUrlDetails,omitempty"`
	TotalRedirects  int         `json:"totalRedirects"`
	Truncated       bool        `json:"truncated,omitempty"`
	ServerInfo      *ServerInfo `json:"serverInfo,omitempty"`
	Safety          *Verdict    `json:"safety,omitempty"`
	AnalyzedAt      *time.Time  `json:"analyzedAt,omitempty"`
}

// Last returns the final hop of the chain, if any.
func (r Result) Last() (Hop, bool) {
	if len(r.Redirects) == 0 {
		return Hop{}, false
	}
	return r.Redirects[len(r.Redirects)-1], true
}
