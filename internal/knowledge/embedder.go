package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// DefaultEmbedTimeout bounds a single batch embedding call. Unbounded
// hangs here would stall the whole ingestion pipeline.
const DefaultEmbedTimeout = 30 * time.Second

// Embedder converts batches of text into fixed-length vectors using a
// Genkit ai.Embedder.
//
// Safe for concurrent use.
type Embedder struct {
	embedder ai.Embedder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewEmbedder creates an Embedder. A non-positive timeout falls back
// to DefaultEmbedTimeout; a nil logger falls back to slog.Default().
func NewEmbedder(embedder ai.Embedder, timeout time.Duration, logger *slog.Logger) *Embedder {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		embedder: embedder,
		timeout:  timeout,
		logger:   logger,
	}
}

// EmbedBatch embeds all texts in a single request and returns vectors
// in input order.
//
// The response length must equal the input length and every vector
// must be non-empty; anything else fails with
// ErrEmbeddingCountMismatch or ErrEmptyEmbedding. A partial response
// passed through silently would corrupt the vector-to-metadata
// association downstream.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := e.embedder.Embed(callCtx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding timed out after %s: %w", e.timeout, err)
		}
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			ErrEmbeddingCountMismatch, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("%w: vector %d", ErrEmptyEmbedding, i)
		}
		vectors[i] = emb.Embedding
	}

	e.logger.Debug("embedded batch", "texts", len(texts), "dimension", len(vectors[0]))
	return vectors, nil
}

// EmbedOne embeds a single text. Used by retrieval for query vectors.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
