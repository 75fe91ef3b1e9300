package app

import (
	"todoTracker/internal/handlers"
	"todoTracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (a *App) newRouter(h handlers.TodoHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	todoRoutes := func(r chi.Router) {
		r.Use(middleware.Auth(a.verifier))

		r.Post("/", h.PostTodo)         // POST /todos
		r.Get("/", h.ListTodos)         // GET /todos
		r.Get("/search", h.SearchTodos) // GET /todos/search
		r.Get("/stats", h.Stats)        // GET /todos/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateTodo)         // PUT /todos/{id}
			r.Delete("/", h.DeleteTodo)      // DELETE /todos/{id}
			r.Patch("/toggle", h.ToggleTodo) // PATCH /todos/{id}/toggle
		})
	}

	r.Route("/todos", todoRoutes)
	r.Route("/api/todos", todoRoutes) // путь, который использует фронтенд

	r.Get("/health", h.HealthCheck)
	r.Get("/", h.Root)

	return r
}
