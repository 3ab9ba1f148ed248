package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", a.handleTest)
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Post("/logout", a.handleLogout)
		r.Get("/users/{id}", a.handleGetUser)

		r.Group(func(r chi.Router) {
			r.Use(a.requireUser)

			r.Get("/me", a.handleMe)

			r.Get("/tasks", a.handleListTasks)
			r.Post("/tasks", a.handleCreateTask)
			r.Patch("/tasks/{id}", a.handleUpdateTask)
			r.Delete("/tasks/{id}", a.handleDeleteTask)

			r.Get("/analytics/summary", a.handleSummary)
			r.Get("/analytics/streak", a.handleStreak)
			r.Get("/analytics/cfd", a.handleCFD)
			r.Get("/completed-tasks", a.handleCompletedTasks)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   a.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
