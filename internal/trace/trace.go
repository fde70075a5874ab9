package trace

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/linkflow/internal/analyzer"
	"github.com/selimozcann/linkflow/internal/apperr"
	"github.com/selimozcann/linkflow/internal/detect"
	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/validate"
)

const (
	DefaultMaxRedirects   = 10
	DefaultHopTimeout     = 8 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (compatible; LinkFlow/1.0)"
	DefaultBodyDrainLimit = 64 << 10

	unknownHeader = "Unknown"
)

// Doer sends a single HTTP request. The client must not follow redirects;
// httpclient.New returns one that doesn't.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config bounds a walk.
type Config struct {
	MaxRedirects int
	HopTimeout   time.Duration
	UserAgent    string
	// BodyDrainLimit caps how much of each body is read before closing.
	BodyDrainLimit int64
	// CheckEveryHop re-applies the validator's host guard to each redirect
	// target, not only to the starting URL.
	CheckEveryHop bool
}

func (c Config) withDefaults() Config {
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.HopTimeout <= 0 {
		c.HopTimeout = DefaultHopTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.BodyDrainLimit <= 0 {
		c.BodyDrainLimit = DefaultBodyDrainLimit
	}
	return c
}

// Options selects the optional parts of a Result.
type Options struct {
	IncludeFacts  bool
	IncludeSafety bool
}

// Full enables every optional annotation.
var Full = Options{IncludeFacts: true, IncludeSafety: true}

// Tracer performs manual redirect tracing. It holds no per-walk state and is
// safe for concurrent use.
type Tracer struct {
	Client     Doer
	Validator  *validate.Validator
	Classifier *detect.Classifier
	Log        logrus.FieldLogger
	cfg        Config
}

// Option customizes a Tracer.
type Option func(*Tracer)

// WithValidator replaces the default prefix-guard validator.
func WithValidator(v *validate.Validator) Option { return func(t *Tracer) { t.Validator = v } }

// WithClassifier replaces the default-rules classifier.
func WithClassifier(c *detect.Classifier) Option { return func(t *Tracer) { t.Classifier = c } }

// WithLogger sets the logger used for per-hop diagnostics.
func WithLogger(l logrus.FieldLogger) Option { return func(t *Tracer) { t.Log = l } }

// New creates a new Tracer.
func New(c Doer, cfg Config, opts ...Option) *Tracer {
	t := &Tracer{Client: c, cfg: cfg.withDefaults()}
	for _, o := range opts {
		o(t)
	}
	if t.Validator == nil {
		t.Validator = validate.New(nil)
	}
	if t.Classifier == nil {
		t.Classifier = detect.NewClassifier(detect.DefaultRules())
	}
	if t.Log == nil {
		t.Log = logrus.StandardLogger()
	}
	return t
}

// Config returns the effective walk bounds.
func (t *Tracer) Config() Config { return t.cfg }

// Trace validates target and follows its redirect chain one hop at a time.
// Any transport failure aborts the walk; hops collected before it are
// discarded and only the classified error is returned.
func (t *Tracer) Trace(ctx context.Context, target string, opts Options) (model.Result, error) {
	start, err := t.Validator.Validate(target)
	if err != nil {
		return model.Result{}, err
	}
	log := t.Log.WithField("target", start.String())

	var (
		res     model.Result
		info    *model.ServerInfo
		current = start
	)
	for i := 0; i < t.cfg.MaxRedirects; i++ {
		if i > 0 && t.cfg.CheckEveryHop {
			if err := t.Validator.Check(current); err != nil {
				return model.Result{}, err
			}
		}

		hop, resp, err := t.fetch(ctx, current, i+1)
		if err != nil {
			log.WithError(err).WithField("step", i+1).Warn("hop failed")
			return model.Result{}, err
		}
		if opts.IncludeFacts {
			hop.Details = analyzer.FactsOf(current)
		}
		res.Redirects = append(res.Redirects, hop)
		log.WithFields(logrus.Fields{
			"step":       hop.Step,
			"status":     hop.Status,
			"url":        hop.URL,
			"elapsed_ms": hop.TimeMs,
		}).Debug("hop")

		redirect := resp.status >= 300 && resp.status < 400
		if i == 0 || !redirect {
			info = &model.ServerInfo{Server: resp.server, ContentType: resp.contentType}
		}
		if resp.location == "" || !redirect {
			break
		}
		loc, err := url.Parse(resp.location)
		if err != nil {
			// An unusable Location ends the chain at the current hop.
			log.WithField("location", resp.location).Debug("unparseable Location header")
			break
		}
		if i == t.cfg.MaxRedirects-1 {
			res.Truncated = true
			break
		}
		current = current.ResolveReference(loc)
	}

	res.FinalURL = current.String()
	res.TotalRedirects = len(res.Redirects)
	res.ServerInfo = info
	if opts.IncludeFacts {
		res.FinalURLDetails = analyzer.FactsOf(current)
	}
	if opts.IncludeSafety {
		v := t.Classifier.Classify(res.FinalURL)
		res.Safety = &v
	}
	now := time.Now().UTC()
	res.AnalyzedAt = &now

	log.WithFields(logrus.Fields{
		"final":     res.FinalURL,
		"hops":      res.TotalRedirects,
		"truncated": res.Truncated,
	}).Info("walk complete")
	return res, nil
}

type hopResponse struct {
	status      int
	location    string
	server      string
	contentType string
}

// fetch performs one GET under its own deadline.
func (t *Tracer) fetch(ctx context.Context, u *url.URL, step int) (model.Hop, hopResponse, error) {
	hopCtx, cancel := context.WithTimeout(ctx, t.cfg.HopTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hopCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Hop{}, hopResponse{}, apperr.FetchFailed("Failed to fetch URL", err)
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	began := time.Now()
	resp, err := t.Client.Do(req)
	if err != nil {
		return model.Hop{}, hopResponse{}, classify(hopCtx, err)
	}
	elapsed := time.Since(began).Milliseconds()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, t.cfg.BodyDrainLimit))
	_ = resp.Body.Close()

	hr := hopResponse{
		status:      resp.StatusCode,
		location:    resp.Header.Get("Location"),
		server:      headerOr(resp.Header, "Server"),
		contentType: headerOr(resp.Header, "Content-Type"),
	}
	hop := model.Hop{Step: step, Status: resp.StatusCode, URL: u.String(), TimeMs: elapsed}
	return hop, hr, nil
}

// classify maps a transport error to Timeout or FetchFailed.
func classify(hopCtx context.Context, err error) error {
	if errors.Is(hopCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("Request timed out", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return apperr.Timeout("Request timed out", err)
	}
	return apperr.FetchFailed("Failed to fetch URL", err)
}

func headerOr(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return unknownHeader
}
