package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wegiclabs/contentpipe/internal/chunk"
	"github.com/wegiclabs/contentpipe/internal/crawl"
	"github.com/wegiclabs/contentpipe/internal/knowledge"
)

// DefaultConcurrency caps how many page files are ingested at once.
const DefaultConcurrency = 4

// Embedder turns chunk texts into vectors. Satisfied by
// knowledge.Embedder.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the slice of the vector index the pipeline needs.
// Satisfied by knowledge.Index.
type Store interface {
	Ensure(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, name string, records []knowledge.Record) error
}

// Config controls chunking and the target index.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
	Dimension    int
	Concurrency  int
}

// DirResult summarizes a directory ingestion run.
type DirResult struct {
	FilesProcessed int
	FilesFailed    int
	ChunksStored   int
	Duration       time.Duration
}

// Pipeline chunks content, embeds every chunk in one batch, and stores
// the resulting records in a named index.
type Pipeline struct {
	chunker     *chunk.Chunker
	embedder    Embedder
	store       Store
	dimension   int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Pipeline. Dimension must match the embedding model's
// output so the index table is created with the right vector width.
func New(cfg Config, embedder Embedder, store Store, logger *slog.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", cfg.Dimension)
	}

	chunker, err := chunk.New(chunk.Config{
		Size:      cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		Separator: cfg.Separator,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		dimension:   cfg.Dimension,
		concurrency: cfg.Concurrency,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Ingest chunks content, embeds the chunks, and upserts them into the
// named index with text, source, and timestamp metadata. Returns the
// number of chunks stored. Empty content stores nothing.
func (p *Pipeline) Ingest(ctx context.Context, content, source, indexName string) (int, error) {
	return p.ingest(ctx, content, indexName, map[string]string{
		knowledge.MetaSource: source,
	})
}

// IngestPage ingests one crawled page. The source and type metadata
// are sanitized the same way index names are, and the raw page path is
// kept under original_path.
func (p *Pipeline) IngestPage(ctx context.Context, page crawl.Page, indexName string) (int, error) {
	return p.ingest(ctx, page.Content, indexName, map[string]string{
		knowledge.MetaSource:       knowledge.SanitizeIndexName(page.Path),
		knowledge.MetaType:         knowledge.SanitizeIndexName(string(page.Type)),
		knowledge.MetaOriginalPath: page.Path,
	})
}

func (p *Pipeline) ingest(ctx context.Context, content, indexName string, meta map[string]string) (int, error) {
	pieces := p.chunker.Split(content)
	if len(pieces) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}

	if err := p.store.Ensure(ctx, indexName, p.dimension); err != nil {
		return 0, err
	}

	timestamp := p.now().UTC().Format(time.RFC3339)
	records := make([]knowledge.Record, len(pieces))
	for i := range pieces {
		recMeta := make(map[string]string, len(meta)+2)
		for k, v := range meta {
			recMeta[k] = v
		}
		recMeta[knowledge.MetaText] = pieces[i].Text
		recMeta[knowledge.MetaTimestamp] = timestamp

		records[i] = knowledge.Record{
			Embedding: vectors[i],
			Metadata:  recMeta,
		}
	}

	if err := p.store.Upsert(ctx, indexName, records); err != nil {
		return 0, err
	}

	p.logger.Debug("ingested content",
		"index", indexName,
		"source", meta[knowledge.MetaSource],
		"chunks", len(records),
	)
	return len(records), nil
}

// IngestDirectory ingests every page JSON file under dir, recursing
// into subdirectories. Files are processed concurrently; a failed file
// is logged and skipped so the rest of the batch still lands.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir, indexName string) (*DirResult, error) {
	start := time.Now()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page files found under %q", dir)
	}

	var (
		mu        sync.Mutex
		processed int
		failed    int
		chunks    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, file := range files {
		g.Go(func() error {
			stored, err := p.ingestFile(gctx, file, indexName)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				p.logger.Warn("page file skipped", "file", filepath.Base(file), "error", err)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil
			}
			processed++
			chunks += stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &DirResult{
		FilesProcessed: processed,
		FilesFailed:    failed,
		ChunksStored:   chunks,
		Duration:       time.Since(start),
	}
	p.logger.Info("directory ingested",
		"dir", dir,
		"index", indexName,
		"processed", result.FilesProcessed,
		"failed", result.FilesFailed,
		"chunks", result.ChunksStored,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, path, indexName string) (int, error) {
	page, err := crawl.LoadPage(path)
	if err != nil {
		return 0, err
	}
	return p.IngestPage(ctx, page, indexName)
}
