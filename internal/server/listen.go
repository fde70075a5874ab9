package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ListenAndServe runs the handler on addr until ctx is cancelled, then
// shuts down gracefully. writeTimeout must cover the slowest walk.
func (h *Handler) ListenAndServe(ctx context.Context, addr string, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go h.RunSweeper(sweepCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		h.log.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	h.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
