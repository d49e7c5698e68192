// Package retrieve answers natural-language queries against the vector
// index: it embeds the query, runs a nearest-neighbor search, and
// normalizes the stored metadata into plain text matches.
package retrieve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wegiclabs/contentpipe/internal/knowledge"
)

// DefaultTopK is the match count used when a caller does not specify one.
const DefaultTopK = 5

// ErrEmptyRetrieval indicates that a query produced no usable text,
// either because the index returned nothing or because no hit carried
// recognizable content.
var ErrEmptyRetrieval = errors.New("retrieval produced no usable content")

// QueryEmbedder embeds a single query string. Satisfied by
// knowledge.Embedder.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs nearest-neighbor queries. Satisfied by knowledge.Index.
type Searcher interface {
	Query(ctx context.Context, name string, vector []float32, topK int) ([]knowledge.Hit, error)
}

// Match is one normalized retrieval result.
type Match struct {
	Text       string  `json:"text"`
	Source     string  `json:"source,omitempty"`
	Similarity float32 `json:"similarity"`
}

// Retriever searches one named index.
type Retriever struct {
	embedder  QueryEmbedder
	index     Searcher
	indexName string
	logger    *slog.Logger
}

// New creates a Retriever over the named index.
func New(embedder QueryEmbedder, index Searcher, indexName string, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if indexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:  embedder,
		index:     index,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// Search returns up to topK normalized matches for the query, ordered
// by descending similarity. Hits whose metadata carries no text are
// dropped; an entirely unusable result set is ErrEmptyRetrieval.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.index.Query(ctx, r.indexName, vector, topK)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, hit := range hits {
		text, source := extractContent(hit.Metadata)
		if text == "" {
			continue
		}
		matches = append(matches, Match{
			Text:       text,
			Source:     source,
			Similarity: hit.Similarity,
		})
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: query %q", ErrEmptyRetrieval, query)
	}

	r.logger.Debug("retrieval complete",
		"query", query,
		"hits", len(hits),
		"matches", len(matches),
	)
	return matches, nil
}

// Facts returns the matched texts joined with blank lines, ready for
// interpolation into a generation prompt.
func (r *Retriever) Facts(ctx context.Context, query string, topK int) (string, error) {
	matches, err := r.Search(ctx, query, topK)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n\n"), nil
}

// hitPayload covers the metadata shapes found in the index. Records
// written by the ingestion pipeline carry text; externally written
// rows have been seen with content instead, or with a nested matches
// array wrapping either form.
type hitPayload struct {
	Text    string       `json:"text"`
	Content string       `json:"content"`
	Source  string       `json:"source"`
	Matches []hitPayload `json:"matches"`
}

// extractContent normalizes one hit's metadata to (text, source).
// Preference order: text, then content, then the concatenated texts of
// a nested matches array. Unparseable or empty metadata yields "".
func extractContent(raw json.RawMessage) (text, source string) {
	var payload hitPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", ""
	}

	switch {
	case payload.Text != "":
		return payload.Text, payload.Source
	case payload.Content != "":
		return payload.Content, payload.Source
	case len(payload.Matches) > 0:
		var parts []string
		for _, m := range payload.Matches {
			if m.Text != "" {
				parts = append(parts, m.Text)
			} else if m.Content != "" {
				parts = append(parts, m.Content)
			}
		}
		return strings.Join(parts, "\n\n"), payload.Source
	}
	return "", ""
}
