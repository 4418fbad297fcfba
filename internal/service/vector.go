package service

import (
	"math"
	"sort"

	"github.com/atlas-learn/atlasai/internal/domain"
)

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either vector is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ScoredChunk is a chunk ranked against a query vector.
type ScoredChunk struct {
	Chunk *domain.DocumentChunk
	Score float64
}

// SearchTopK ranks chunks by cosine similarity to the query vector and
// returns the best k, highest first.
func SearchTopK(query []float32, chunks []*domain.DocumentChunk, k int) []ScoredChunk {
	if k <= 0 || len(chunks) == 0 {
		return nil
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(query, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
