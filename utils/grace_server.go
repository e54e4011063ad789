package utils

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 15 * time.Second
)

// GraceServer serves the handler and drains in-flight requests on SIGINT or
// SIGTERM before returning.
func GraceServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		if Sugar != nil {
			Sugar.Infof("received signal %s, shutting down", sig)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
