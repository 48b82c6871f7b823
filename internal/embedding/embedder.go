// Package embedding provides text embedding via ONNX and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the embedding backend cannot serve a
// request. The pipeline treats it as non-fatal and degrades to
// frequency-only analysis.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
