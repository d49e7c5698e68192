package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wegiclabs/contentpipe/internal/crawl"
	"github.com/wegiclabs/contentpipe/internal/knowledge"
)

type mockEmbedder struct {
	err   error
	calls int
	batch []string
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.batch = texts
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

type mockStore struct {
	mu sync.Mutex

	ensureErr error
	upsertErr error

	ensureCalls int
	ensuredName string
	ensuredDim  int

	upsertCalls int
	records     []knowledge.Record
}

func (m *mockStore) Ensure(_ context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	m.ensuredName = name
	m.ensuredDim = dimension
	return m.ensureErr
}

func (m *mockStore) Upsert(_ context.Context, _ string, records []knowledge.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	m.records = append(m.records, records...)
	return m.upsertErr
}

func newTestPipeline(t *testing.T, embedder Embedder, store Store) *Pipeline {
	t.Helper()
	p, err := New(Config{ChunkSize: 50, ChunkOverlap: 10, Dimension: 3}, embedder, store, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestIngest(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockStore{}
	p := newTestPipeline(t, embedder, store)

	content := "First paragraph of documentation.\nSecond paragraph with more detail.\nThird paragraph to push past one chunk."
	count, err := p.Ingest(context.Background(), content, "docs/intro", "wegic_knowledge")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if count == 0 || count != len(store.records) {
		t.Errorf("count = %d, stored = %d", count, len(store.records))
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1 (single batch)", embedder.calls)
	}
	if len(embedder.batch) != count {
		t.Errorf("embedded %d texts for %d chunks", len(embedder.batch), count)
	}
	if store.ensuredName != "wegic_knowledge" || store.ensuredDim != 3 {
		t.Errorf("ensured %q dim %d", store.ensuredName, store.ensuredDim)
	}

	for i, rec := range store.records {
		if rec.Metadata[knowledge.MetaText] == "" {
			t.Errorf("record %d missing text", i)
		}
		if rec.Metadata[knowledge.MetaSource] != "docs/intro" {
			t.Errorf("record %d source = %q", i, rec.Metadata[knowledge.MetaSource])
		}
		if rec.Metadata[knowledge.MetaTimestamp] != "2025-06-01T12:00:00Z" {
			t.Errorf("record %d timestamp = %q", i, rec.Metadata[knowledge.MetaTimestamp])
		}
	}
}

func TestIngestEmptyContent(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockStore{}
	p := newTestPipeline(t, embedder, store)

	count, err := p.Ingest(context.Background(), "", "src", "idx")
	if err != nil {
		t.Fatalf("Ingest(\"\") failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if embedder.calls != 0 || store.ensureCalls != 0 {
		t.Error("empty content reached the embedder or store")
	}
}

func TestIngestEmbeddingFailure(t *testing.T) {
	embedErr := errors.New("model unavailable")
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{err: embedErr}, store)

	_, err := p.Ingest(context.Background(), "some content", "src", "idx")
	if !errors.Is(err, embedErr) {
		t.Errorf("error = %v, want wrapped embed error", err)
	}
	if store.upsertCalls != 0 {
		t.Error("records stored despite embedding failure")
	}
}

func TestIngestPageSanitizesMetadata(t *testing.T) {
	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	page := crawl.Page{
		Path:    "/blog/ai-builder",
		Title:   "AI Builder",
		Content: "Post body.",
		URL:     "https://wegic.ai/blog/ai-builder",
		Type:    crawl.TypeBlog,
	}
	if _, err := p.IngestPage(context.Background(), page, "idx"); err != nil {
		t.Fatalf("IngestPage failed: %v", err)
	}
	if len(store.records) == 0 {
		t.Fatal("no records stored")
	}

	meta := store.records[0].Metadata
	if meta[knowledge.MetaSource] != "blog_ai_builder" {
		t.Errorf("source = %q, want sanitized path", meta[knowledge.MetaSource])
	}
	if meta[knowledge.MetaType] != "blog" {
		t.Errorf("type = %q, want blog", meta[knowledge.MetaType])
	}
	if meta[knowledge.MetaOriginalPath] != "/blog/ai-builder" {
		t.Errorf("original_path = %q, want raw path", meta[knowledge.MetaOriginalPath])
	}
}

func TestIngestDirectorySkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "wegic-docs")
	if err := os.MkdirAll(docsDir, 0o750); err != nil {
		t.Fatal(err)
	}

	for _, page := range []crawl.Page{
		{Path: "/whats-wegic", Title: "A", Content: "Content of page A.", Type: crawl.TypeDoc},
		{Path: "/faqs", Title: "B", Content: "Content of page B.", Type: crawl.TypeDoc},
	} {
		if _, err := page.Save(dir); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(docsDir, "broken.json"), []byte("{not json"), 0o640); err != nil {
		t.Fatal(err)
	}

	store := &mockStore{}
	p := newTestPipeline(t, &mockEmbedder{}, store)

	result, err := p.IngestDirectory(context.Background(), dir, "idx")
	if err != nil {
		t.Fatalf("IngestDirectory failed: %v", err)
	}
	if result.FilesProcessed != 2 {
		t.Errorf("processed = %d, want 2", result.FilesProcessed)
	}
	if result.FilesFailed != 1 {
		t.Errorf("failed = %d, want 1", result.FilesFailed)
	}
	if result.ChunksStored != len(store.records) {
		t.Errorf("chunks = %d, stored = %d", result.ChunksStored, len(store.records))
	}
}

func TestIngestDirectoryEmpty(t *testing.T) {
	p := newTestPipeline(t, &mockEmbedder{}, &mockStore{})

	if _, err := p.IngestDirectory(context.Background(), t.TempDir(), "idx"); err == nil {
		t.Error("expected error for directory with no page files")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Dimension: 3}, nil, &mockStore{}, nil); err == nil {
		t.Error("accepted nil embedder")
	}
	if _, err := New(Config{Dimension: 3}, &mockEmbedder{}, nil, nil); err == nil {
		t.Error("accepted nil store")
	}
	if _, err := New(Config{}, &mockEmbedder{}, &mockStore{}, nil); err == nil {
		t.Error("accepted zero dimension")
	}
}
