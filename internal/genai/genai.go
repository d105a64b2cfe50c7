// Package genai provides the generative-language-model fallback using the
// OpenAI API, with a fixed persona-establishing system prompt.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// PersonaPrompt establishes the assistant persona on every completion.
const PersonaPrompt = "You are Pandora AI inside the Mental Scope app.\n" +
	"You are supportive, calm, friendly, empathetic and safe.\n" +
	"If the user asks about mental health, respond gently and therapeutically.\n" +
	"If the user asks general knowledge or other questions, answer clearly while maintaining your supportive persona.\n" +
	"Never encourage self-harm."

// completionService is the minimal chat-completions surface, extracted so
// tests can substitute a mock.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps OpenAI chat completions behind the engine's Completer
// contract.
type Client struct {
	completions completionService
	model       openai.ChatModel
}

// NewClient initializes a GenAI client. The API key comes from options or
// the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: client created", "model", cfg.Model)
	return &Client{completions: &cli.Chat.Completions, model: cfg.Model}, nil
}

// Complete generates a persona-framed reply to the user's text.
func (c *Client) Complete(ctx context.Context, userText string) (string, error) {
	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(PersonaPrompt),
			openai.UserMessage(userText),
		},
	})
	if err != nil {
		slog.Error("genai.Complete: completion failed", "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.Complete: no choices returned")
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
