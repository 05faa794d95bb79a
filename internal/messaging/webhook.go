package messaging

import (
	"context"
	"net/http"
	"strings"
	"time"

	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/turnera/turnos-ai-platform/internal/conversation"
	"github.com/turnera/turnos-ai-platform/internal/observability/metrics"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// Publisher enqueues inbound messages for asynchronous processing.
type Publisher interface {
	Enqueue(ctx context.Context, msg conversation.InboundMessage) error
}

// WebhookHandler receives Twilio WhatsApp callbacks, validates them and hands
// the message to the queue. Twilio retries on non-2xx, so enqueue failures
// return 500 on purpose.
type WebhookHandler struct {
	publisher Publisher
	orgID     string
	baseURL   string
	validator *twilioclient.RequestValidator
	logger    *logging.Logger
	metrics   *metrics.ConversationMetrics
	now       func() time.Time
}

// NewWebhookHandler wires the inbound WhatsApp endpoint. authToken enables
// Twilio signature validation; empty disables it (local development).
// baseURL is the public URL Twilio signs against.
func NewWebhookHandler(publisher Publisher, orgID, authToken, baseURL string, logger *logging.Logger, m *metrics.ConversationMetrics) *WebhookHandler {
	if publisher == nil {
		panic("messaging: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &WebhookHandler{
		publisher: publisher,
		orgID:     orgID,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
	if authToken != "" {
		v := twilioclient.NewRequestValidator(authToken)
		h.validator = &v
	}
	return h
}

// ServeHTTP handles POST callbacks from Twilio.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.metrics.ObserveInbound("rejected")
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	if h.validator != nil && !h.validSignature(r) {
		h.metrics.ObserveInbound("rejected")
		h.logger.Warn("rejected webhook with bad signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	from := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	body := r.PostFormValue("Body")
	if from == "" {
		h.metrics.ObserveInbound("rejected")
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	msg := conversation.InboundMessage{
		OrgID:      h.orgID,
		From:       from,
		To:         strings.TrimPrefix(r.PostFormValue("To"), "whatsapp:"),
		Body:       body,
		MessageSID: r.PostFormValue("MessageSid"),
		MediaURL:   r.PostFormValue("MediaUrl0"),
		ReceivedAt: h.now().UTC(),
	}

	if err := h.publisher.Enqueue(r.Context(), msg); err != nil {
		h.metrics.ObserveInbound("error")
		h.logger.Error("failed to enqueue inbound message", "error", err, "from", from)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveInbound("accepted")

	// Empty TwiML: the reply goes out asynchronously from the worker.
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}

func (h *WebhookHandler) validSignature(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}
	url := h.baseURL + r.URL.RequestURI()
	return h.validator.Validate(url, params, signature)
}
