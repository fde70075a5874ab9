package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/selimozcann/linkflow/internal/config"
	"github.com/selimozcann/linkflow/internal/logging"
)

// globalFlags are shared by every subcommand and override the environment.
type globalFlags struct {
	logLevel     string
	logFormat    string
	ssrfMode     string
	maxRedirects int
	hopTimeout   time.Duration
	userAgent    string
	noBanner     bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "linkflow",
		Short:         "Trace HTTP redirect chains and rate the destination",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&g.ssrfMode, "ssrf-mode", "", "SSRF guard: prefix or strict")
	pf.IntVar(&g.maxRedirects, "max-redirects", 0, "Maximum hops per walk")
	pf.DurationVar(&g.hopTimeout, "timeout", 0, "Per-hop timeout")
	pf.StringVar(&g.userAgent, "user-agent", "", "User-Agent sent on every hop")
	pf.BoolVar(&g.noBanner, "no-banner", false, "Do not print the banner")

	root.AddCommand(newTraceCmd(&g), newServeCmd(&g))
	return root
}

// resolve merges environment configuration with explicitly set flags and
// builds the logger.
func (g *globalFlags) resolve(cmd *cobra.Command) (config.Config, *logrus.Logger, error) {
	cfg := config.Load()
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = g.logFormat
	}
	if flags.Changed("ssrf-mode") {
		cfg.SSRFMode = g.ssrfMode
	}
	if flags.Changed("max-redirects") {
		cfg.MaxRedirects = g.maxRedirects
	}
	if flags.Changed("timeout") {
		cfg.HopTimeout = g.hopTimeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = g.userAgent
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return cfg, nil, err
	}
	log.WithFields(cfg.Fields()).Debug("configuration loaded")
	return cfg, log, nil
}
