package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultEmbeddingModel is the Gemini model used for embeddings.
	DefaultEmbeddingModel = "text-embedding-004"
	// DefaultEmbeddingDimensions is the dimension of text-embedding-004 vectors.
	DefaultEmbeddingDimensions = 768
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// GeminiEmbedder generates embeddings through the Gemini API.
type GeminiEmbedder struct {
	client     *genai.Client
	modelName  string
	dimensions int
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

// NewGeminiEmbedder creates a new GeminiEmbedder.
func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	return &GeminiEmbedder{
		client:     client,
		modelName:  model,
		dimensions: dimensions,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// GenerateEmbedding embeds a single text.
func (g *GeminiEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	em := g.client.EmbeddingModel(g.modelName)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	if len(resp.Embedding.Values) != g.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, g.dimensions, len(resp.Embedding.Values))
	}

	return resp.Embedding.Values, nil
}

// GenerateEmbeddings embeds a batch of texts in one request.
func (g *GeminiEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if len(e.Values) != g.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, g.dimensions, len(e.Values))
		}
		out = append(out, e.Values)
	}
	return out, nil
}
