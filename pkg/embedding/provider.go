package embedding

import (
	"context"
	"math"
)

// EmbeddingResponse is the provider-agnostic result of an embedding call.
type EmbeddingResponse struct {
	Values []float32
	Tokens int
	Model  string
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Cosine distance in pgvector requires normalized vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// FitDimension pads with zeros or truncates so the vector matches the column
// dimension of the database schema. Models occasionally return a different
// size; storing a mismatched vector fails the insert outright.
func FitDimension(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	fitted := make([]float32, dim)
	copy(fitted, vec)
	return fitted
}
