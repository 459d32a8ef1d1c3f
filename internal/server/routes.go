package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealmint/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/deals", func(r chi.Router) {
			r.Post("/", handler(s.postV1Deals))
			r.Get("/", handler(s.getV1Deals))
			r.Get("/{slug}", handler(s.getV1Deal))
		})

		r.Route("/negotiations/{id}", func(r chi.Router) {
			r.Post("/", handler(s.postV1Negotiation))
			r.Get("/mandate", handler(s.getV1Mandate))
		})

		r.Post("/payments/{id}", handler(s.postV1Payment))

		r.Route("/settlements", func(r chi.Router) {
			r.Get("/estimate", handler(s.getV1SettlementEstimate))
			r.Post("/{id}", handler(s.postV1Settlement))
			r.Get("/{id}/status", handler(s.getV1SettlementStatus))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}

// createdOrOK is 201 for a fresh record and 200 when an earlier call already
// made it.
func createdOrOK(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
