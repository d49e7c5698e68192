package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// mockAIEmbedder implements ai.Embedder for testing.
type mockAIEmbedder struct {
	embedErr  error
	vectors   [][]float32 // vectors to return; nil = one per input
	delay     time.Duration
	callCount int
	lastBatch int
}

func (m *mockAIEmbedder) Name() string { return "mock-embedder" }

func (m *mockAIEmbedder) Register(api.Registry) {}

func (m *mockAIEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	m.lastBatch = len(req.Input)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}

	vectors := m.vectors
	if vectors == nil {
		vectors = make([][]float32, len(req.Input))
		for i := range vectors {
			vectors[i] = []float32{0.1, 0.2, 0.3}
		}
	}

	resp := &ai.EmbedResponse{}
	for _, v := range vectors {
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: v})
	}
	return resp, nil
}

func TestEmbedBatch(t *testing.T) {
	mock := &mockAIEmbedder{}
	e := NewEmbedder(mock, 0, nil)

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Errorf("got %d vectors, want 3", len(vectors))
	}
	if mock.callCount != 1 {
		t.Errorf("embedder called %d times, want 1 (single batch)", mock.callCount)
	}
	if mock.lastBatch != 3 {
		t.Errorf("batch size = %d, want 3", mock.lastBatch)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	mock := &mockAIEmbedder{}
	e := NewEmbedder(mock, 0, nil)

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch(nil) failed: %v", err)
	}
	if vectors != nil {
		t.Errorf("got %v, want nil", vectors)
	}
	if mock.callCount != 0 {
		t.Errorf("embedder called for empty input")
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	// Two vectors for three texts must fail, never misalign.
	mock := &mockAIEmbedder{vectors: [][]float32{{0.1}, {0.2}}}
	e := NewEmbedder(mock, 0, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if !errors.Is(err, ErrEmbeddingCountMismatch) {
		t.Errorf("error = %v, want ErrEmbeddingCountMismatch", err)
	}
}

func TestEmbedBatchEmptyVector(t *testing.T) {
	mock := &mockAIEmbedder{vectors: [][]float32{{0.1}, {}}}
	e := NewEmbedder(mock, 0, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("error = %v, want ErrEmptyEmbedding", err)
	}
}

func TestEmbedBatchTransportError(t *testing.T) {
	transportErr := errors.New("quota exceeded")
	mock := &mockAIEmbedder{embedErr: transportErr}
	e := NewEmbedder(mock, 0, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, transportErr) {
		t.Errorf("error = %v, want wrapped transport error", err)
	}
}

func TestEmbedBatchTimeout(t *testing.T) {
	mock := &mockAIEmbedder{delay: 200 * time.Millisecond}
	e := NewEmbedder(mock, 10*time.Millisecond, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

func TestEmbedOne(t *testing.T) {
	mock := &mockAIEmbedder{vectors: [][]float32{{0.5, 0.6}}}
	e := NewEmbedder(mock, 0, nil)

	vec, err := e.EmbedOne(context.Background(), "query")
	if err != nil {
		t.Fatalf("EmbedOne failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vector = %v, want [0.5 0.6]", vec)
	}
}
