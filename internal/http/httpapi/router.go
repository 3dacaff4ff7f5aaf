package httpapi

import (
	"net/http"

	"promptcraft/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/workflows", func(r chi.Router) {
		r.Post("/", app.CreateWorkflow)
		r.Get("/", app.ListWorkflows)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetWorkflow)
			r.Put("/", app.UpdateWorkflow)
			r.Delete("/", app.DeleteWorkflow)
			r.Get("/versions", app.ListWorkflowVersions)
			r.Post("/scenes", app.CreateScene)
			r.Get("/scenes", app.ListScenes)
			r.Get("/jobs", app.ListWorkflowJobs)
		})
	})

	r.Route("/v1/scenes", func(r chi.Router) {
		r.Get("/", app.ListAllScenes)
		r.Put("/{sceneID}", app.UpdateScene)
		r.Delete("/{sceneID}", app.DeleteScene)
	})

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/{id}", app.GetJob)
		r.Delete("/{id}", app.DeleteJob)
	})

	r.Post("/v1/generations", app.EnqueueGeneration)
	r.Post("/v1/generate", app.Generate)
	r.Post("/v1/text", app.GenerateText)

	r.Route("/v1/providers", func(r chi.Router) {
		r.Get("/", app.ListProviders)
		r.Post("/{name}/configure", app.ConfigureProvider)
	})

	return r
}
