package api

import (
	"github.com/babylonlabs-io/custody-engine/internal/api/handlers"
	"github.com/babylonlabs-io/custody-engine/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter serves reads publicly. Every mutating route requires a signed
// request and acts for the signer only.
func newRouter(h *handlers.Handler, verifier *auth.Verifier, adminKeys []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)
	r.Use(metricsMiddleware)

	authed := authMiddleware(verifier)

	r.Get("/healthcheck", handlers.Wrap(h.HealthCheck))

	r.Route("/v1", func(r chi.Router) {
		r.With(authed, adminOnly(adminKeys)).Post("/config", handlers.Wrap(h.InitConfig))
		r.Get("/config", handlers.Wrap(h.GetConfig))

		r.Route("/users/{owner}", func(r chi.Router) {
			r.With(authed).Post("/", handlers.Wrap(h.InitUser))
			r.Get("/", handlers.Wrap(h.GetUser))
			r.With(authed).Delete("/", handlers.Wrap(h.CloseUser))
			r.Get("/custody", handlers.Wrap(h.ListUserCustody))
		})

		r.With(authed).Post("/stake", handlers.Wrap(h.Stake))
		r.With(authed).Post("/unstake", handlers.Wrap(h.Unstake))
		r.Get("/custody/{asset_id}", handlers.Wrap(h.GetCustody))
	})

	return r
}
