package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

type fakeMessageAPI struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeMessageAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSenderSend(t *testing.T) {
	api := &fakeMessageAPI{}
	sender := NewTwilioSenderWithAPI(api, "+5491160000000", logging.New("error"))

	err := sender.Send(context.Background(), "+5491122334455", "Hola María.", nil)
	require.NoError(t, err)

	require.NotNil(t, api.params)
	assert.Equal(t, "whatsapp:+5491122334455", *api.params.To)
	assert.Equal(t, "whatsapp:+5491160000000", *api.params.From)
	assert.Equal(t, "Hola María.", *api.params.Body)
}

func TestTwilioSenderRendersMenu(t *testing.T) {
	api := &fakeMessageAPI{}
	sender := NewTwilioSenderWithAPI(api, "whatsapp:+5491160000000", logging.New("error"))

	menu := &dialog.MenuTemplate{
		Title:   "¿Qué querés hacer?",
		Options: []dialog.MenuOption{{ID: "A", Label: "Sacar un turno"}},
	}
	require.NoError(t, sender.Send(context.Background(), "+5491122334455", "Hola.", menu))

	assert.Contains(t, *api.params.Body, "A) Sacar un turno")
	assert.Equal(t, "whatsapp:+5491160000000", *api.params.From)
}

func TestTwilioSenderRejectsEmptyBody(t *testing.T) {
	api := &fakeMessageAPI{}
	sender := NewTwilioSenderWithAPI(api, "+5491160000000", logging.New("error"))

	assert.Error(t, sender.Send(context.Background(), "+5491122334455", "   ", nil))
	assert.Nil(t, api.params)
}

func TestTwilioSenderWrapsAPIError(t *testing.T) {
	api := &fakeMessageAPI{err: errors.New("unreachable")}
	sender := NewTwilioSenderWithAPI(api, "+5491160000000", logging.New("error"))

	err := sender.Send(context.Background(), "+5491122334455", "Hola.", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messaging:")
}

func TestNewTwilioSenderRequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender("", "", "+5491160000000", logging.New("error"))
	assert.Error(t, err)

	_, err = NewTwilioSender("AC123", "token", "", logging.New("error"))
	assert.Error(t, err)
}
