// Package server owns the listen/serve lifecycle of the HTTP server and the
// optional gRPC health server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	grpcserver "github.com/shashiranjanraj/storefront/pkg/grpc"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Options configures Run.
type Options struct {
	Addr     string // HTTP listen address, e.g. ":8080"
	GRPCPort string // empty disables gRPC
	Check    grpcserver.Checker
}

// Run serves handler until ctx is cancelled, then drains in-flight requests
// for up to 15 seconds. It returns the first listener error.
func Run(ctx context.Context, handler http.Handler, opts Options) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if opts.GRPCPort != "" {
		gsrv, _, err := grpcserver.Start(opts.GRPCPort, opts.Check)
		if err != nil {
			return err
		}
		defer grpcserver.Stop(gsrv)
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	return <-errc
}
