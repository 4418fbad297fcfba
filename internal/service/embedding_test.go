package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedClient embeds deterministically and tracks concurrency.
type countingEmbedClient struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	failOn   string
}

func (c *countingEmbedClient) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	if c.failOn != "" && text == c.failOn {
		return nil, fmt.Errorf("refused to embed %q", text)
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbedChunks_PreservesOrder(t *testing.T) {
	client := &countingEmbedClient{}
	svc := NewEmbeddingService(client)

	chunks := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)

	require.Len(t, vectors, len(chunks))
	for i, chunk := range chunks {
		assert.Equal(t, float32(len(chunk)), vectors[i][0])
	}
}

func TestEmbedChunks_BoundedConcurrency(t *testing.T) {
	client := &countingEmbedClient{}
	svc := NewEmbeddingService(client)

	chunks := make([]string, 50)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk %d", i)
	}

	_, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)
	assert.LessOrEqual(t, client.peak, embedConcurrency)
}

func TestEmbedChunks_FailFast(t *testing.T) {
	client := &countingEmbedClient{failOn: "poison"}
	svc := NewEmbeddingService(client)

	_, err := svc.EmbedChunks(context.Background(), []string{"fine", "poison", "also fine"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
}

func TestEmbedChunks_Empty(t *testing.T) {
	svc := NewEmbeddingService(&countingEmbedClient{})

	vectors, err := svc.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
