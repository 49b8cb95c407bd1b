package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reelpoint/reelpoint-server/internal/app"
	"github.com/reelpoint/reelpoint-server/internal/models"
)

func SetupRoutes(app *app.Application) *chi.Mux {
	r := chi.NewRouter()

	r.Use(httprate.LimitAll(200, time.Minute))
	r.Use(app.MiddlewareHandler.RequestLogger)
	r.Use(app.MiddlewareHandler.Security)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitAll(50, time.Minute))
		r.Use(app.MiddlewareHandler.Cors)

		r.Post("/register", app.Auth.Register)
		r.Post("/login", app.Auth.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(app.MiddlewareHandler.Cors)

		// The stream endpoint authenticates inside the handler so the token
		// can arrive as a query parameter.
		r.Get("/videos/{id}/stream", app.StreamHandler.HandlerStreamVideo)

		r.Group(func(r chi.Router) {
			r.Use(app.MiddlewareHandler.Authenticate)

			r.Get("/events", app.EventsHandler.HandlerEvents)

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", app.VideoHandler.HandlerGetVideos)
				r.With(app.MiddlewareHandler.RequireRole(models.RoleEditor, models.RoleAdmin)).
					Post("/upload", app.VideoHandler.HandlerUploadVideo)
				r.Get("/{id}", app.VideoHandler.HandlerGetVideoByID)
				r.Patch("/{id}", app.VideoHandler.HandlerUpdateVideo)
				r.Delete("/{id}", app.VideoHandler.HandlerDeleteVideo)
				r.Post("/{id}/assign", app.VideoHandler.HandlerAssignVideo)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(app.MiddlewareHandler.RequireRole(models.RoleAdmin)).
					Get("/", app.UserHandler.HandlerGetUsers)
				r.Get("/{id}", app.UserHandler.HandlerGetUserByID)
				r.Put("/{id}", app.UserHandler.HandlerUpdateUser)
				r.With(app.MiddlewareHandler.RequireRole(models.RoleAdmin)).
					Delete("/{id}", app.UserHandler.HandlerDeactivateUser)
				r.Get("/organization/{org}", app.UserHandler.HandlerGetUsersByOrganization)
			})
		})
	})

	return r
}
