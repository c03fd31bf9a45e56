package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"lina-server/internal/http/handlers"
	"lina-server/internal/metrics"
	"lina-server/internal/middleware"
)

// NewRouter wires the middleware chain and all endpoints.
func NewRouter(app *handlers.App, gatherer prometheus.Gatherer) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(app.Cfg.AllowedOrigins))
	r.Use(middleware.NewRateLimiter(app.Cfg.RateLimitPerMin).Handler)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
	})

	r.Get("/v1/me", app.Me)
	r.Post("/v1/chat", app.Chat)

	r.Route("/v1/subscriptions", func(r chi.Router) {
		r.Post("/checkout", app.SubscriptionCheckout)
	})

	r.Route("/v1/payments", func(r chi.Router) {
		r.Get("/methods", app.PaymentMethods)
		r.Post("/webhook", app.PaymentWebhook)
	})

	return r
}
