package conversation

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// FallbackAgent answers the messages the dialogue engine declines. It only
// ever produces text; booking and profile writes stay with the engine.
type FallbackAgent interface {
	Reply(ctx context.Context, msg InboundMessage, profile dialog.ProfileSnapshot) (string, error)
}

const fallbackSystemPrompt = `Sos el asistente virtual de un centro de salud argentino que atiende por WhatsApp.
Respondé en español rioplatense, breve y cordial.
No confirmes, modifiques ni canceles turnos: para eso indicá que escriba "menu" y use las opciones.
No inventes horarios, precios ni datos del centro. Si no sabés algo, decilo y ofrecé derivar la consulta.`

// chatClient is the slice of the OpenAI client the fallback uses; it keeps
// the HTTP client out of tests.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIFallback answers out-of-flow messages with a chat completion.
type OpenAIFallback struct {
	client chatClient
	model  string
}

// NewOpenAIFallback creates a fallback agent against the OpenAI API.
func NewOpenAIFallback(apiKey, model string) *OpenAIFallback {
	if apiKey == "" {
		panic("conversation: OpenAI API key required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIFallback{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIFallbackWithClient allows injecting a fake client for tests.
func NewOpenAIFallbackWithClient(client chatClient, model string) *OpenAIFallback {
	return &OpenAIFallback{client: client, model: model}
}

// Reply generates a free-form answer for one inbound message.
func (f *OpenAIFallback) Reply(ctx context.Context, msg InboundMessage, profile dialog.ProfileSnapshot) (string, error) {
	system := fallbackSystemPrompt
	if name := strings.TrimSpace(profile.FullName); name != "" {
		system += "\nEl cliente se llama " + name + "."
	}

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       f.model,
		MaxTokens:   300,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: msg.Body},
		},
	})
	if err != nil {
		return "", fmt.Errorf("conversation: fallback completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("conversation: fallback returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
