package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"todo-app-go/internal/config"
	"todo-app-go/internal/transport/httpserver/handler"
	"todo-app-go/internal/transport/httpserver/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.HTTP.AllowedOrigins()))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Get("/lists", handlers.ListTodoLists)
		r.Post("/lists", handlers.CreateTodoList)
		r.Get("/lists/{list_id}", handlers.GetTodoList)
		r.Delete("/lists/{list_id}", handlers.DeleteTodoList)
		r.Post("/lists/{list_id}/items", handlers.CreateTodoItem)
		r.Patch("/lists/{list_id}/items/{item_id}/checked", handlers.SetTodoItemChecked)
		r.Delete("/lists/{list_id}/items/{item_id}", handlers.DeleteTodoItem)
	})

	return r
}
