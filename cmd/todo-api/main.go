package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-app-go/internal/app"
	"todo-app-go/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(logger.NewFromEnv()))
}

func run(log logger.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("todo-api: starting")
	application, err := app.New(ctx, log)
	if err != nil {
		log.Critical("todo-api: init failed", "err", err)
		return 1
	}

	srv := application.HTTPServer()
	code := 0
	if err := serve(ctx, srv, log); err != nil {
		log.Critical("http: server failed", "addr", srv.Addr, "err", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		code = 1
	}
	if err := application.Close(shutdownCtx); err != nil {
		log.Error("todo-api: closing store failed", "err", err)
		code = 1
	}

	if code == 0 {
		log.Info("todo-api: stopped")
	}
	return code
}

// serve blocks until ctx is done or the listener fails.
func serve(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("http: listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("todo-api: shutdown signal received")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
