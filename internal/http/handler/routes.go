package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nannkadayo/site-verify-discord-bot/internal/http/middleware"
)

// NewRouter wires the HTTP surface. The verify route carries the rate
// limiter; bot-facing routes sit behind the same limiter but are
// typically exempted via the trusted-caller bypass.
func NewRouter(verify *VerifyHandler, panels *PanelHandler, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	// RemoteAddr must stay the raw transport peer: duplicate evidence,
	// the reverse-DNS check and the rate-limit key all derive from it,
	// so no client-settable header may rewrite it.
	r.Use(chimiddleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware())
		r.Put("/verify", verify.Confirm)
		r.Post("/verifications", verify.Issue)
		r.Post("/panels", panels.Register)
		r.Put("/panels/role", panels.SetRole)
		r.Get("/panels/{message_id}/grant-context", panels.GrantContext)
	})

	return r
}
