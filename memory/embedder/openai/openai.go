// Package openai provides an Embedder backed by the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is the embedding model used unless overridden.
const DefaultModel = openai.EmbeddingModelTextEmbedding3Small

// DefaultDimensions is the native output size of text-embedding-3-small.
const DefaultDimensions = 1536

// Embedder converts text to vectors via the OpenAI embeddings API.
type Embedder struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
	truncated  bool // true when dimensions were reduced below the model's native size
}

// Option configures the embedder.
type Option func(*Embedder)

// WithModel sets the embedding model.
func WithModel(model openai.EmbeddingModel) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions requests reduced-dimension vectors (supported by the
// text-embedding-3 family). The manager's tier indices must be configured at
// the same size.
func WithDimensions(dims int) Option {
	return func(e *Embedder) {
		e.dimensions = dims
		e.truncated = true
	}
}

// New creates an embedder. An empty apiKey falls back to the OPENAI_API_KEY
// environment variable.
func New(apiKey string, opts ...Option) (*Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required (set OPENAI_API_KEY)")
	}

	e := &Embedder{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      DefaultModel,
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dimensions <= 0 {
		return nil, fmt.Errorf("openai: dimensions must be positive, got %d", e.dimensions)
	}
	return e, nil
}

// Embed converts a single text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: e.model,
	}
	if e.truncated {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: embedding response contained no data")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dimensions {
		return nil, fmt.Errorf("openai: model returned %d dimensions, expected %d", len(raw), e.dimensions)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
