package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmlinkgh/wallet-backend/internal/api/handlers"
	"github.com/farmlinkgh/wallet-backend/internal/auth"
	"github.com/farmlinkgh/wallet-backend/internal/config"
	"github.com/farmlinkgh/wallet-backend/internal/middleware"
)

type RouterDeps struct {
	Cfg       config.Config
	Wallet    *handlers.WalletHandler
	Webhook   *handlers.WebhookHandler
	Reconcile *handlers.ReconcileHandler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	am := middleware.NewAuthMiddleware(auth.NewVerifier(d.Cfg.JWTSecret, d.Cfg.JWTIssuer), d.Cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// called by the payment network, not by users
		r.Post("/webhooks/settlement", d.Webhook.Settlement)

		r.Route("/wallet", func(r chi.Router) {
			r.Use(am.Auth)
			r.Post("/transactions", d.Wallet.Initiate)
			r.Get("/transactions", d.Wallet.History)
			r.Get("/transactions/{id}", d.Wallet.Get)
			r.Get("/balance", d.Wallet.Balance)
			r.Get("/fees", d.Wallet.Quote)
			r.Get("/events", d.Wallet.Events)
			r.Post("/accounts", d.Wallet.CreateAccount)
			r.Get("/accounts", d.Wallet.ListAccounts)
		})

		r.Route("/reconcile", func(r chi.Router) {
			r.Use(middleware.OperatorKey(d.Cfg.OperatorKeyHashes))
			r.Post("/analyze", d.Reconcile.Analyze)
			r.Post("/execute", d.Reconcile.Execute)
			r.Post("/refund", d.Reconcile.Refund)
		})
	})

	return r
}
