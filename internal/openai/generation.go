package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

var (
	// ErrEmptyPrompt is returned when GenerateFeedback is called with an empty user prompt.
	ErrEmptyPrompt = errors.New("openai: user prompt is empty")
	// ErrNoCompletionInResponse is returned when the API response contains no choices.
	ErrNoCompletionInResponse = errors.New("openai: no completion in response")
)

const (
	defaultGenerationModel = "gpt-4o-mini"

	// Feedback is three short sentences; 300 tokens leaves generous headroom
	// without letting a runaway completion bill for a paragraph.
	feedbackMaxTokens   = 300
	feedbackTemperature = 0.8
)

// GenerationClient calls the OpenAI chat completions API for feedback text.
// It issues exactly one request per call; retry policy belongs to the caller.
type GenerationClient struct {
	sdk   openaisdk.Client
	model string
}

// GenerationOption configures the GenerationClient.
type GenerationOption func(*GenerationClient)

// WithGenerationModel sets the chat model. Default is gpt-4o-mini.
func WithGenerationModel(model string) GenerationOption {
	return func(c *GenerationClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewGenerationClient creates an OpenAI chat completions client.
func NewGenerationClient(apiKey string, opts ...GenerationOption) *GenerationClient {
	client := &GenerationClient{
		sdk:   openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model: defaultGenerationModel,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// GenerateFeedback sends one system + user prompt pair and returns the raw
// completion text. Callers normalize the text; this layer stays transport-only.
func (c *GenerationClient) GenerateFeedback(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", ErrEmptyPrompt
	}

	messages := []openaisdk.ChatCompletionMessageParamUnion{
		openaisdk.SystemMessage(system),
		openaisdk.UserMessage(user),
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openaisdk.ChatModel(c.model),
		MaxTokens:   param.NewOpt(int64(feedbackMaxTokens)),
		Temperature: param.NewOpt(feedbackTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCompletionInResponse
	}

	return resp.Choices[0].Message.Content, nil
}
