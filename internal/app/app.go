package app

import (
	"context"
	"net/http"

	"todo-app-go/internal/config"
	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/internal/transport/httpserver"
	"todo-app-go/internal/transport/httpserver/handler"
	"todo-app-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	store      *Store
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: opening store", "driver", cfg.Store.Driver)
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing router")
	handlers := handler.New(todosdomain.NewService(store.Repo()), store, log)
	router := httpserver.NewRouter(cfg, handlers)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg.HTTP, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		store:      store,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
