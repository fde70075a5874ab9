package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimozcann/linkflow/internal/banner"
	"github.com/selimozcann/linkflow/internal/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the redirect walk as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.ServerAddress = addr
			}
			if !g.noBanner {
				banner.PrintBanner(cmd.ErrOrStderr())
			}
			tracer, err := newTracer(cfg, clientOptions{}, log)
			if err != nil {
				return err
			}
			h := server.NewHandler(tracer, server.Config{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// Leave headroom over the slowest possible walk before the write deadline.
			return h.ListenAndServe(ctx, cfg.ServerAddress, cfg.WorstCase()+10*time.Second)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from LINKFLOW_ADDR or :8080)")
	return cmd
}
