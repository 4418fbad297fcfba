package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// embedConcurrency bounds parallel embedding calls against provider rate limits.
const embedConcurrency = 4

// EmbeddingService fans chunk texts out to the embedding provider.
type EmbeddingService struct {
	client      EmbeddingClient
	concurrency int
}

// NewEmbeddingService creates a new EmbeddingService instance.
func NewEmbeddingService(client EmbeddingClient) *EmbeddingService {
	return &EmbeddingService{client: client, concurrency: embedConcurrency}
}

// EmbedText generates a single embedding, used for chat query vectors.
func (s *EmbeddingService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return s.client.GenerateEmbedding(ctx, text)
}

// EmbedChunks embeds every chunk concurrently, preserving input order.
// Any single failure fails the whole batch; ingestion is all-or-nothing.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := s.client.GenerateEmbedding(ctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
