package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnera/turnos-ai-platform/internal/conversation"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

type fakePublisher struct {
	enqueued []conversation.InboundMessage
	err      error
}

func (f *fakePublisher) Enqueue(_ context.Context, msg conversation.InboundMessage) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func postWebhook(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEnqueuesInbound(t *testing.T) {
	pub := &fakePublisher{}
	h := NewWebhookHandler(pub, "org-1", "", "", logging.New("error"), nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5491122334455")
	form.Set("To", "whatsapp:+5491160000000")
	form.Set("Body", "hola")
	form.Set("MessageSid", "SM123")

	rec := postWebhook(t, h, form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response></Response>")

	require.Len(t, pub.enqueued, 1)
	msg := pub.enqueued[0]
	assert.Equal(t, "org-1", msg.OrgID)
	assert.Equal(t, "+5491122334455", msg.From)
	assert.Equal(t, "+5491160000000", msg.To)
	assert.Equal(t, "hola", msg.Body)
	assert.Equal(t, "SM123", msg.MessageSID)
	assert.False(t, msg.ReceivedAt.IsZero())
}

func TestWebhookCarriesMediaURL(t *testing.T) {
	pub := &fakePublisher{}
	h := NewWebhookHandler(pub, "org-1", "", "", logging.New("error"), nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5491122334455")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://api.twilio.com/media/ME123")

	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.enqueued, 1)
	assert.Equal(t, "https://api.twilio.com/media/ME123", pub.enqueued[0].MediaURL)
}

func TestWebhookRejectsMissingSender(t *testing.T) {
	pub := &fakePublisher{}
	h := NewWebhookHandler(pub, "org-1", "", "", logging.New("error"), nil)

	form := url.Values{}
	form.Set("Body", "hola")

	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.enqueued)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	pub := &fakePublisher{}
	h := NewWebhookHandler(pub, "org-1", "secret-token", "https://bot.example.com", logging.New("error"), nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5491122334455")
	form.Set("Body", "hola")

	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, pub.enqueued)
}

func TestWebhookEnqueueFailureIs500(t *testing.T) {
	pub := &fakePublisher{err: errors.New("queue unavailable")}
	h := NewWebhookHandler(pub, "org-1", "", "", logging.New("error"), nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5491122334455")
	form.Set("Body", "hola")

	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
