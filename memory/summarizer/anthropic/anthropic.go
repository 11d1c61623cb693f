// Package anthropic provides a Summarizer backed by the Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

const systemPrompt = "You condense an agent's recent memories. Reply with the summary text only."

// DefaultModel balances summary quality against promotion latency.
const DefaultModel = sdk.ModelClaude3_5HaikuLatest

// Summarizer consolidates memory texts into one summary via Claude.
type Summarizer struct {
	client    *sdk.Client
	model     sdk.Model
	maxTokens int64
}

// Option configures the summarizer.
type Option func(*Summarizer)

// WithModel sets the Claude model.
func WithModel(model sdk.Model) Option {
	return func(s *Summarizer) {
		s.model = model
	}
}

// WithMaxTokens caps the summary length.
func WithMaxTokens(n int64) Option {
	return func(s *Summarizer) {
		s.maxTokens = n
	}
}

// New creates a summarizer using the given client.
func New(client *sdk.Client, opts ...Option) (*Summarizer, error) {
	if client == nil {
		return nil, fmt.Errorf("anthropic: client is required")
	}
	s := &Summarizer{
		client:    client,
		model:     DefaultModel,
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Summarize condenses the texts, in the given order, into one summary that
// preserves key details.
func (s *Summarizer) Summarize(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", fmt.Errorf("anthropic: nothing to summarize")
	}

	prompt := "Summarize these memories while preserving key details:\n" + strings.Join(texts, "\n")

	resp, err := s.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	summary := strings.TrimSpace(sb.String())
	if summary == "" {
		return "", fmt.Errorf("anthropic: response contained no text")
	}
	return summary, nil
}
