// Package httpapi exposes the policy and claim services over HTTP. It owns
// request-shape validation and the mapping of domain errors to status codes;
// the business rules themselves live in the services.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"policyflow/claim"
	"policyflow/policy"
)

type Server struct {
	policies *policy.Service
	claims   *claim.Service
}

func NewServer(policies *policy.Service, claims *claim.Service) *Server {
	return &Server{
		policies: policies,
		claims:   claims,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/policies", func(r chi.Router) {
		r.Post("/", s.createPolicy)
		r.Get("/", s.listPolicies)
		r.Get("/{id}", s.getPolicy)
		r.Post("/{id}/renew", s.renewPolicy)
		r.Delete("/{id}", s.cancelPolicy)
	})

	r.Route("/api/claims", func(r chi.Router) {
		r.Post("/", s.submitClaim)
		r.Get("/{id}", s.getClaim)
		r.Get("/policy/{policyId}", s.listClaimsByPolicy)
		r.Patch("/{id}/status", s.updateClaimStatus)
	})

	return r
}
