package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// DefaultQueryTimeout bounds a nearest-neighbor query so a runaway
// vector scan cannot block callers indefinitely.
const DefaultQueryTimeout = 10 * time.Second

// Querier defines the database operations Index needs. The interface
// is defined by the consumer so tests can substitute a mock; PGQuerier
// is the production implementation.
type Querier interface {
	// CreateIndexTable creates the table backing a named index with a
	// vector column of the given dimension. It must NOT use
	// IF NOT EXISTS: Index distinguishes "already exists" from other
	// failures by error code.
	CreateIndexTable(ctx context.Context, table string, dimension int) error

	// InsertRecords appends (vector, metadata JSON) rows to the table.
	InsertRecords(ctx context.Context, table string, vectors []pgvector.Vector, metadata [][]byte) error

	// QueryNearest returns up to topK rows ordered by descending
	// cosine similarity to the query vector.
	QueryNearest(ctx context.Context, table string, vector pgvector.Vector, topK int) ([]Hit, error)
}

// Index manages named vector collections. Creation is idempotent,
// upserts are append-only batches, and queries return hits ordered by
// descending similarity.
//
// Safe for concurrent use; consistency under concurrent upserts is
// delegated to Postgres (rows are independent inserts).
type Index struct {
	queries      Querier
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewIndex creates an Index backed by the given querier.
func NewIndex(queries Querier, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		queries:      queries,
		queryTimeout: DefaultQueryTimeout,
		logger:       logger,
	}
}

var indexNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SanitizeIndexName converts an arbitrary string into a Postgres-safe
// identifier: lowercase, non-alphanumerics replaced with underscores,
// runs of underscores collapsed, leading/trailing underscores trimmed.
//
// The same rules apply to sanitized metadata values (source paths,
// content types) so identifiers stay consistent across the store.
func SanitizeIndexName(name string) string {
	var sb strings.Builder
	prevUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				sb.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

// tableName sanitizes and validates an index name for use as a SQL
// identifier. All Index entry points go through this before any name
// reaches the querier.
func tableName(name string) (string, error) {
	sanitized := SanitizeIndexName(name)
	if sanitized == "" {
		return "", fmt.Errorf("%w: %q sanitizes to empty", ErrIndexName, name)
	}
	if !indexNamePattern.MatchString(sanitized) {
		return "", fmt.Errorf("%w: %q", ErrIndexName, sanitized)
	}
	return sanitized, nil
}

// Ensure creates the named index with the given vector dimension if it
// does not already exist. Creation is attempted unconditionally; a
// duplicate-table failure is success, any other failure surfaces.
func (ix *Index) Ensure(ctx context.Context, name string, dimension int) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("index %q: dimension must be positive, got %d", table, dimension)
	}

	if err := ix.queries.CreateIndexTable(ctx, table, dimension); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DuplicateTable {
			ix.logger.Debug("index already exists", "index", table)
			return nil
		}
		return fmt.Errorf("creating index %q: %w", table, err)
	}

	ix.logger.Info("created index", "index", table, "dimension", dimension)
	return nil
}

// Upsert appends records to the named index as one batch. Every record
// must carry an embedding; metadata is marshaled to JSON as-is.
func (ix *Index) Upsert(ctx context.Context, name string, records []Record) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	vectors := make([]pgvector.Vector, len(records))
	metadata := make([][]byte, len(records))
	for i, rec := range records {
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("record %d: %w", i, ErrEmptyEmbedding)
		}
		vectors[i] = pgvector.NewVector(rec.Embedding)

		meta, err := marshalMetadata(rec.Metadata)
		if err != nil {
			return fmt.Errorf("record %d: marshaling metadata: %w", i, err)
		}
		metadata[i] = meta
	}

	if err := ix.queries.InsertRecords(ctx, table, vectors, metadata); err != nil {
		return fmt.Errorf("upserting %d records into %q: %w", len(records), table, err)
	}

	ix.logger.Debug("upserted records", "index", table, "count", len(records))
	return nil
}

// Query returns the topK nearest neighbors of the query vector,
// ordered by descending similarity. Runs under the index query timeout.
func (ix *Index) Query(ctx context.Context, name string, vector []float32, topK int) ([]Hit, error) {
	table, err := tableName(name)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("index %q: topK must be positive, got %d", table, topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, ix.queryTimeout)
	defer cancel()

	hits, err := ix.queries.QueryNearest(queryCtx, table, pgvector.NewVector(vector), topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query on %q timed out: %w", table, err)
		}
		return nil, fmt.Errorf("querying index %q: %w", table, err)
	}
	return hits, nil
}

func marshalMetadata(meta map[string]string) ([]byte, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	return json.Marshal(meta)
}
