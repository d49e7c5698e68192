// Package knowledge manages vector embeddings and named vector indexes
// backed by PostgreSQL + pgvector.
//
// It provides two components:
//
//   - Embedder: batch text-to-vector conversion over a Genkit
//     ai.Embedder, with strict count checking so a partial or
//     mis-ordered response can never silently misalign chunk metadata.
//   - Index: named collections of (vector, metadata) records with
//     idempotent creation, batch upsert, and cosine nearest-neighbor
//     queries.
//
// Each named index maps to one Postgres table holding a fixed-dimension
// vector column and a JSONB metadata column. Index names pass through
// SanitizeIndexName before they are used as SQL identifiers.
//
// The Index depends on the Querier interface rather than a concrete
// database handle, so tests can substitute a mock while production
// wires the pgx-backed PGQuerier.
package knowledge
