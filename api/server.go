package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/DGHeroin/HostStats/logging"
)

const shutdownTimeout = 5 * time.Second

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
// writeTimeout must cover the CPU sample window.
func Serve(ctx context.Context, addr string, handler http.Handler, writeTimeout time.Duration, logger *logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, handler, writeTimeout, logger)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler, writeTimeout time.Duration, logger *logging.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
