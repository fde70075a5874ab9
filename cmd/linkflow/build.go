package main

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/linkflow/internal/config"
	"github.com/selimozcann/linkflow/internal/httpclient"
	"github.com/selimozcann/linkflow/internal/trace"
	"github.com/selimozcann/linkflow/internal/validate"
)

// clientOptions are transport settings only the CLI exposes.
type clientOptions struct {
	proxy    string
	headers  []string
	insecure bool
}

// newTracer wires a Tracer from cfg. Strict SSRF mode re-checks every hop
// and dials only public addresses.
func newTracer(cfg config.Config, co clientOptions, log logrus.FieldLogger) (*trace.Tracer, error) {
	strict := cfg.SSRFMode == config.SSRFStrict

	hdr, err := toHeader(co.headers)
	if err != nil {
		return nil, err
	}
	var proxyFunc func(*http.Request) (*url.URL, error)
	if co.proxy != "" {
		proxyURL, perr := url.Parse(co.proxy)
		if perr != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", perr)
		}
		proxyFunc = http.ProxyURL(proxyURL)
	}

	client := httpclient.New(httpclient.Config{
		Timeout:   cfg.HopTimeout,
		UserAgent: cfg.UserAgent,
		Proxy:     proxyFunc,
		Headers:   hdr,
		Insecure:  co.insecure,
		SafeDial:  strict,
	})
	return trace.New(client, trace.Config{
		MaxRedirects:   cfg.MaxRedirects,
		HopTimeout:     cfg.HopTimeout,
		UserAgent:      cfg.UserAgent,
		BodyDrainLimit: cfg.BodyDrainLimit,
		CheckEveryHop:  strict,
	},
		trace.WithValidator(validate.New(validate.GuardFor(cfg.SSRFMode))),
		trace.WithLogger(log),
	), nil
}

// buildTargets merges positional URLs with the contents of file.
func buildTargets(args []string, file string) ([]string, error) {
	targets := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			targets = append(targets, a)
		}
	}
	if file != "" {
		fromFile, err := loadURLs(file)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets: pass URLs as arguments or use -f")
	}
	return targets, nil
}

// loadURLs reads one URL per line, skipping blanks and # comments.
func loadURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target list %q: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("target list read error: %w", err)
	}
	return urls, nil
}

func toHeader(headers []string) (http.Header, error) {
	hdr := make(http.Header)
	for _, h := range headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid header %q (expected Key: Value)", h)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid header %q (empty key)", h)
		}
		hdr.Add(key, value)
	}
	return hdr, nil
}
