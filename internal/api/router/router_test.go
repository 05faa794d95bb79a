package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

func testRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = logging.New("error")
	}
	if cfg.WhatsAppWebhook == nil {
		cfg.WhatsAppWebhook = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("webhook"))
		})
	}
	return New(cfg)
}

func TestHealthEndpoint(t *testing.T) {
	h := testRouter(t, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebhookRouteDispatches(t *testing.T) {
	h := testRouter(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/whatsapp", strings.NewReader("Body=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webhook", rec.Body.String())
}

func TestWebhookRouteRejectsGet(t *testing.T) {
	h := testRouter(t, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/twilio/whatsapp", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpointOptional(t *testing.T) {
	withMetrics := testRouter(t, Config{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
	rec := httptest.NewRecorder()
	withMetrics.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")

	withoutMetrics := testRouter(t, Config{})
	rec = httptest.NewRecorder()
	withoutMetrics.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookRateLimit(t *testing.T) {
	h := testRouter(t, Config{WebhookRatePerSecond: 1, WebhookBurst: 1})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/whatsapp", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	h.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/webhooks/twilio/whatsapp", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestPanicsWithoutWebhookHandler(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{Logger: logging.New("error")})
	})
}
