package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mulakhat/interview/internal/api"
	"mulakhat/interview/internal/auth"
)

func New(h *api.Handlers, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))

		r.Route("/api/v1/interviews", func(r chi.Router) {
			r.Get("/", h.ListInterviews)
			r.Post("/", h.CreateInterview)
			r.Get("/{id}", h.GetInterview)
			r.Put("/{id}", h.UpdateInterview)
			r.Put("/{id}/start", h.StartInterview)
			r.Put("/{id}/end", h.EndInterview)
			r.Put("/{id}/current-question", h.SetCurrentQuestion)
			r.Post("/{id}/submit-code", h.SubmitCode)
			r.Post("/{id}/execute", h.ExecuteCode)
			r.Post("/{id}/run-tests", h.RunTests)
			r.Get("/{id}/messages", h.ListMessages)
			r.Post("/{id}/messages", h.CreateMessage)
		})

		r.Get("/ws", h.SessionWS)
	})

	return r
}
