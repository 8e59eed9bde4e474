package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alejandrodnm/walkforward/config"
	"github.com/alejandrodnm/walkforward/internal/adapters/httpapi"
	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
)

const shutdownTimeout = 10 * time.Second

// runServer sirve los runs guardados hasta que ctx se cancela.
func runServer(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := httpapi.New(httpapi.Config{Addr: cfg.Server.Addr, Store: store})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
