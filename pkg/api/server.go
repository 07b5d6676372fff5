package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/vsroc/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// NewServer creates the report HTTP server from cfg.
func NewServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      NewRouter(NewHandlers(cfg.ReportDir()), cfg.AllowedOrigins()),
		ReadTimeout:  cfg.ServerReadTimeout(),
		WriteTimeout: cfg.ServerWriteTimeout(),
	}
}

// Serve runs server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
