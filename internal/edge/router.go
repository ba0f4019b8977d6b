package edge

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full HTTP surface: the push and token endpoints
// behind the CIDR ACL, plus unauthenticated health and metrics probes.
func NewRouter(h *Handler, allowedCIDRs []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ACL(allowedCIDRs))

		r.Post("/push", h.Push)

		r.Route("/v2/tokens/{account}", func(r chi.Router) {
			r.Post("/", h.AddToken)
			r.Delete("/", h.RemoveToken)
			r.Post("/push", h.FanoutPush)
			r.Post("/push/{device}", h.FanoutPush)
		})
	})

	return r
}
