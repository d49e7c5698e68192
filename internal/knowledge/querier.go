package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PGQuerier is the pgx-backed Querier implementation.
//
// Table names are interpolated into SQL text because Postgres does not
// support parameterized identifiers. Index validates every name
// against ^[a-z_][a-z0-9_]*$ before it reaches this layer, so the
// interpolation cannot carry injection payloads. All values go through
// ordinary query parameters.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier creates a PGQuerier over an existing connection pool.
// The pool's lifecycle is managed by the caller.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

// CreateIndexTable creates the backing table for a named index.
// Deliberately no IF NOT EXISTS: Index treats the duplicate-table
// error code as success and everything else as fatal.
func (q *PGQuerier) CreateIndexTable(ctx context.Context, table string, dimension int) error {
	sql := fmt.Sprintf(
		`CREATE TABLE %s (
			id BIGSERIAL PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table, dimension)
	_, err := q.pool.Exec(ctx, sql)
	return err
}

// InsertRecords appends rows in a single pgx batch round trip.
func (q *PGQuerier) InsertRecords(ctx context.Context, table string, vectors []pgvector.Vector, metadata [][]byte) error {
	if len(vectors) != len(metadata) {
		return fmt.Errorf("vectors and metadata length mismatch: %d vs %d", len(vectors), len(metadata))
	}

	sql := fmt.Sprintf(`INSERT INTO %s (embedding, metadata) VALUES ($1, $2)`, table)

	batch := &pgx.Batch{}
	for i := range vectors {
		batch.Queue(sql, vectors[i], metadata[i])
	}

	results := q.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := 0; i < len(vectors); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}
	return nil
}

// QueryNearest runs a cosine nearest-neighbor query. The <=> operator
// is cosine distance; similarity is 1 - distance.
func (q *PGQuerier) QueryNearest(ctx context.Context, table string, vector pgvector.Vector, topK int) ([]Hit, error) {
	sql := fmt.Sprintf(
		`SELECT metadata, 1 - (embedding <=> $1) AS similarity
		 FROM %s
		 ORDER BY embedding <=> $1
		 LIMIT $2`, table)

	rows, err := q.pool.Query(ctx, sql, vector, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.Metadata, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// NewPool creates a pgx connection pool with pgvector types registered
// on every connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
