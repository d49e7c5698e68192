package knowledge

import "errors"

var (
	// ErrEmbeddingCountMismatch indicates the embedding service returned
	// a different number of vectors than texts submitted. Treated as
	// fatal: proceeding would associate vectors with the wrong metadata.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match input count")

	// ErrEmptyEmbedding indicates the embedding service returned a
	// zero-length vector.
	ErrEmptyEmbedding = errors.New("empty embedding returned")

	// ErrIndexName indicates an index name that is empty or cannot be
	// used as a SQL identifier even after sanitization.
	ErrIndexName = errors.New("invalid index name")
)
