package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/selimozcann/linkflow/internal/banner"
	"github.com/selimozcann/linkflow/internal/config"
	"github.com/selimozcann/linkflow/internal/output"
	"github.com/selimozcann/linkflow/internal/runner"
	"github.com/selimozcann/linkflow/internal/statuscolor"
	"github.com/selimozcann/linkflow/internal/trace"
)

type traceOptions struct {
	file        string
	threads     int
	rateLimit   float64
	outputJSONL string
	outputHTML  string
	summary     bool
	silent      bool
	noFacts     bool
	noSafety    bool
	client      clientOptions
}

func newTraceCmd(g *globalFlags) *cobra.Command {
	var opts traceOptions
	cmd := &cobra.Command{
		Use:   "trace [url...]",
		Short: "Follow the redirect chain of one or more URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if !g.noBanner && !opts.silent {
				banner.PrintBanner(cmd.ErrOrStderr())
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTrace(ctx, cmd.OutOrStdout(), cfg, opts, args, log)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "File with one URL per line")
	f.IntVarP(&opts.threads, "threads", "t", 10, "Concurrent walks")
	f.Float64Var(&opts.rateLimit, "rl", 0, "Walks started per second (0 = unlimited)")
	f.StringVarP(&opts.outputJSONL, "output", "o", "", "JSONL output file")
	f.StringVar(&opts.outputHTML, "html", "", "HTML report output file")
	f.BoolVar(&opts.summary, "summary", false, "Show one-line summary per target")
	f.BoolVar(&opts.silent, "silent", false, "Suppress chain output")
	f.BoolVar(&opts.noFacts, "no-facts", false, "Omit per-hop URL details")
	f.BoolVar(&opts.noSafety, "no-safety", false, "Omit the safety verdict")
	f.StringVar(&opts.client.proxy, "proxy", "", "HTTP(S) proxy URL")
	f.StringArrayVarP(&opts.client.headers, "header", "H", nil, "Extra HTTP header (repeatable)")
	f.BoolVar(&opts.client.insecure, "insecure", false, "Skip TLS verification")
	return cmd
}

func runTrace(ctx context.Context, stdout io.Writer, cfg config.Config, opts traceOptions, args []string, log logrus.FieldLogger) error {
	if opts.threads <= 0 {
		return fmt.Errorf("-t must be greater than zero (got %d)", opts.threads)
	}
	if opts.rateLimit < 0 {
		return fmt.Errorf("--rl must be >= 0 (got %v)", opts.rateLimit)
	}
	targets, err := buildTargets(args, opts.file)
	if err != nil {
		return err
	}
	tracer, err := newTracer(cfg, opts.client, log)
	if err != nil {
		return err
	}

	walkOpts := trace.Options{IncludeFacts: !opts.noFacts, IncludeSafety: !opts.noSafety}
	runr := runner.New(runner.Config{Threads: opts.threads, RateLimit: opts.rateLimit, Options: walkOpts}, tracer)
	log.WithFields(logrus.Fields{
		"targets":    len(targets),
		"threads":    opts.threads,
		"rate_limit": opts.rateLimit,
	}).Debug("starting walks")

	outcomes := runr.Run(ctx, targets)

	if !opts.silent {
		printConsole(stdout, outcomes, opts.summary)
	}

	now := time.Now().UTC()
	if opts.outputJSONL != "" {
		records := make([]output.Record, len(outcomes))
		for i, o := range outcomes {
			records[i] = output.BuildRecord(o, now)
		}
		if err := writeJSONLFile(opts.outputJSONL, records); err != nil {
			return err
		}
		log.WithField("path", opts.outputJSONL).Info("JSONL report written")
	}
	if opts.outputHTML != "" {
		views := make([]output.ResultView, len(outcomes))
		for i, o := range outcomes {
			views[i] = output.BuildResultView(i, o)
		}
		page := output.PageData{
			Title:       "LinkFlow Report",
			GeneratedAt: now,
			Params:      buildParamsMap(cfg, opts, len(targets)),
			Summary:     output.BuildSummary(outcomes),
			Results:     views,
		}
		if err := writeHTMLFile(opts.outputHTML, page); err != nil {
			return err
		}
		log.WithField("path", opts.outputHTML).Info("HTML report written")
	}
	return ctx.Err()
}

func printConsole(w io.Writer, outcomes []runner.Outcome, summary bool) {
	total := len(outcomes)
	for i, o := range outcomes {
		if summary {
			if o.Err != nil {
				fmt.Fprintf(w, "[%d/%d] %s | error: %s\n", i+1, total, o.Target, statuscolor.WrapByStatus(o.Err.Error(), 500))
				continue
			}
			statuscolor.PrintSummary(w, i+1, total, o.Target, o.Result)
			continue
		}
		fmt.Fprintf(w, "=== Target %d/%d: %s ===\n", i+1, total, o.Target)
		if o.Err != nil {
			fmt.Fprintf(w, "Error: %s\n\n", statuscolor.WrapByStatus(o.Err.Error(), 500))
			continue
		}
		statuscolor.PrintResult(w, o.Result)
		fmt.Fprintln(w)
	}
}

func buildParamsMap(cfg config.Config, opts traceOptions, targetCount int) map[string]string {
	params := map[string]string{
		"threads":           strconv.Itoa(opts.threads),
		"rate_limit":        strconv.FormatFloat(opts.rateLimit, 'f', -1, 64),
		"timeout":           cfg.HopTimeout.String(),
		"max_redirects":     strconv.Itoa(cfg.MaxRedirects),
		"ssrf_mode":         cfg.SSRFMode,
		"facts":             strconv.FormatBool(!opts.noFacts),
		"safety":            strconv.FormatBool(!opts.noSafety),
		"targets_generated": strconv.Itoa(targetCount),
	}
	if opts.file != "" {
		params["file"] = opts.file
	}
	if opts.client.proxy != "" {
		params["proxy"] = opts.client.proxy
	}
	if len(opts.client.headers) > 0 {
		params["headers"] = strings.Join(opts.client.headers, "; ")
	}
	return params
}

func writeJSONLFile(path string, records []output.Record) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create JSONL directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSONL file: %w", err)
	}
	defer f.Close()
	if err := output.WriteJSONL(f, records); err != nil {
		return fmt.Errorf("write JSONL: %w", err)
	}
	return nil
}

func writeHTMLFile(path string, page output.PageData) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create HTML directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML file: %w", err)
	}
	defer f.Close()
	if err := output.RenderHTML(f, page); err != nil {
		return fmt.Errorf("write HTML: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
