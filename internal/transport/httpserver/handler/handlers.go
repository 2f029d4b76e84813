package handler

import (
	"context"

	"github.com/go-playground/validator/v10"

	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/pkg/logger"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Todos    *todosdomain.Service
	health   HealthChecker
	validate *validator.Validate
	log      logger.Logger
}

func New(todos *todosdomain.Service, health HealthChecker, log logger.Logger) *Handlers {
	return &Handlers{
		Todos:    todos,
		health:   health,
		validate: newValidator(),
		log:      log,
	}
}
