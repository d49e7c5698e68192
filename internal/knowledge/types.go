package knowledge

import "encoding/json"

// Metadata keys written by the ingestion pipeline. Retrieval reads the
// same keys back when normalizing query hits.
const (
	MetaText         = "text"
	MetaSource       = "source"
	MetaType         = "type"
	MetaTimestamp    = "timestamp"
	MetaOriginalPath = "original_path"
)

// Record is one (vector, metadata) pair stored in an index. Records
// are immutable once written; this pipeline never updates them.
type Record struct {
	Embedding []float32
	Metadata  map[string]string
}

// Hit is one nearest-neighbor match returned by Index.Query, ordered
// by descending similarity.
//
// Metadata is kept as raw JSON: external writers share these indexes
// and their payload shapes vary, so decoding is the retrieval layer's
// concern (see the retrieve package).
type Hit struct {
	Metadata   json.RawMessage
	Similarity float32
}
