// Package router assembles the HTTP surface: the Twilio webhook, the health
// check and the Prometheus scrape endpoint.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/turnera/turnos-ai-platform/internal/http/middleware"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// Config carries the handlers and settings the router mounts.
type Config struct {
	Logger *logging.Logger

	// WhatsAppWebhook receives Twilio status callbacks and inbound messages.
	WhatsAppWebhook http.Handler

	// MetricsHandler serves the Prometheus registry. Optional.
	MetricsHandler http.Handler

	// WebhookRatePerSecond bounds inbound webhook traffic per IP. Zero
	// disables rate limiting.
	WebhookRatePerSecond float64
	WebhookBurst         int
}

// New builds the chi router with the standard middleware stack.
func New(cfg Config) http.Handler {
	if cfg.WhatsAppWebhook == nil {
		panic("router: whatsapp webhook handler cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.RequestLogger(logger))

	r.Get("/health", handleHealth)

	r.Group(func(public chi.Router) {
		if cfg.WebhookRatePerSecond > 0 {
			burst := cfg.WebhookBurst
			if burst <= 0 {
				burst = int(cfg.WebhookRatePerSecond) * 2
			}
			public.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSecond, burst))
		}
		public.Method(http.MethodPost, "/webhooks/twilio/whatsapp", cfg.WhatsAppWebhook)
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
