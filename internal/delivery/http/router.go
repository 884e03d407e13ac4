package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *HTTPHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)

	r.Route("/v1/lfg", func(r chi.Router) {
		r.Get("/status", h.EngineStatus)
		r.Get("/dungeons", h.ListDungeons)
		r.Get("/dungeons/{dungeonId}", h.GetDungeon)
		r.Get("/queues/{queueType}", h.ListQueue)
		r.Get("/tickets/{ticketId}", h.GetTicket)
		r.Get("/proposals/{proposalId}", h.GetProposal)
		r.Post("/entry-tokens/validate", h.ValidateEntryToken)
	})

	return r
}
