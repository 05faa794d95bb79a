package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/turnera/turnos-ai-platform/internal/conversation"
	"github.com/turnera/turnos-ai-platform/internal/dialog"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// messageCreator is the slice of the Twilio REST client the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers replies over WhatsApp through Twilio.
type TwilioSender struct {
	api    messageCreator
	from   string
	logger *logging.Logger
}

var _ conversation.ReplySender = (*TwilioSender)(nil)

// NewTwilioSender builds a sender against the Twilio REST API. from is the
// WhatsApp-enabled number, with or without the "whatsapp:" prefix.
func NewTwilioSender(accountSID, authToken, from string, logger *logging.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("messaging: twilio credentials missing")
	}
	if from == "" {
		return nil, errors.New("messaging: twilio from number missing")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSender(client.Api, from, logger), nil
}

// NewTwilioSenderWithAPI allows injecting a fake API for tests.
func NewTwilioSenderWithAPI(api messageCreator, from string, logger *logging.Logger) *TwilioSender {
	return newTwilioSender(api, from, logger)
}

func newTwilioSender(api messageCreator, from string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		api:    api,
		from:   whatsappAddress(from),
		logger: logger,
	}
}

// Send renders the reply (and menu, when present) and posts it as one
// WhatsApp message.
func (s *TwilioSender) Send(ctx context.Context, to, reply string, menu *dialog.MenuTemplate) error {
	body := RenderMenu(reply, menu)
	if body == "" {
		return errors.New("messaging: empty reply body")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsappAddress(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("messaging: send whatsapp message to %s: %w", to, err)
	}

	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.logger.Debug("whatsapp message sent", "to", to, "sid", sid)
	return nil
}

// whatsappAddress normalizes a phone number to Twilio's WhatsApp addressing.
func whatsappAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
