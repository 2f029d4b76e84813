package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"todo-app-go/internal/app"
	"todo-app-go/internal/config"
	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, connectStore))
}

func newLogger(verbose bool) logger.Logger {
	if !verbose {
		return logger.Nop()
	}
	return logger.New(os.Stderr, zerolog.DebugLevel, "text")
}

func connectStore(ctx context.Context, log logger.Logger) (*todosdomain.Service, func(), error) {
	cfg, err := config.Load(log)
	if err != nil {
		return nil, nil, err
	}

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("todoctl: close store failed", "err", err)
		}
	}
	return todosdomain.NewService(store.Repo()), closeFn, nil
}
