// Package chunk splits document text into overlapping fixed-size pieces
// for embedding and vector indexing.
//
// Sizes are measured in characters (runes), not tokens. A chunker
// prefers breaking at a separator near the target size so that chunks
// end on natural boundaries, falling back to a hard cut when no
// separator occurs within the search window.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults used by the ingestion pipeline. Exposed so call sites and
// configuration share one source of truth.
const (
	DefaultSize      = 512
	DefaultOverlap   = 50
	DefaultSeparator = "\n"
)

// ErrInvalidConfig indicates chunker parameters that cannot produce
// forward progress (non-positive size, or overlap >= size).
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Piece is one bounded slice of a document's text.
//
// Offset is the rune offset of Text within the original document,
// including the overlap carried from the previous piece. Index is the
// zero-based position in the produced sequence.
type Piece struct {
	Text   string
	Index  int
	Offset int
}

// Config holds chunking parameters.
type Config struct {
	// Size is the soft target length of a piece in runes, excluding
	// the overlap prefix.
	Size int

	// Overlap is the number of trailing runes from one piece repeated
	// at the start of the next, preserving context across boundaries.
	Overlap int

	// Separator is the preferred break string. Empty means DefaultSeparator.
	Separator string
}

// Chunker splits text deterministically: the same input and
// configuration always produce the same piece sequence.
//
// Safe for concurrent use.
type Chunker struct {
	size      int
	overlap   int
	separator []rune
}

// New creates a Chunker. Size must be positive and Overlap must be
// non-negative and smaller than Size, otherwise splitting could not
// advance through the input.
func New(cfg Config) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, cfg.Size)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("%w: overlap must be in [0, size), got %d", ErrInvalidConfig, cfg.Overlap)
	}
	sep := cfg.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Chunker{
		size:      cfg.Size,
		overlap:   cfg.Overlap,
		separator: []rune(sep),
	}, nil
}

// Split divides text into overlapping pieces.
//
// Guarantees:
//   - empty input produces zero pieces
//   - non-empty input produces at least one piece
//   - no piece is empty
//   - concatenating pieces with their overlap prefixes removed
//     reconstructs the input exactly
func (c *Chunker) Split(text string) []Piece {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var pieces []Piece

	pos := 0
	for pos < len(runes) {
		end := c.cutPoint(runes, pos)

		start := pos - c.overlap
		if start < 0 {
			start = 0
		}

		pieces = append(pieces, Piece{
			Text:   string(runes[start:end]),
			Index:  len(pieces),
			Offset: start,
		})
		pos = end
	}

	return pieces
}

// cutPoint returns the exclusive end of the piece starting at pos.
// It targets pos+size, moved back to just after the nearest separator
// within the search window. The cut always advances past pos.
func (c *Chunker) cutPoint(runes []rune, pos int) int {
	end := pos + c.size
	if end >= len(runes) {
		return len(runes)
	}

	// Search the trailing quarter of the piece for the last separator.
	window := c.size / 4
	lo := end - window
	if lo <= pos {
		lo = pos + 1
	}

	if i := lastSeparator(runes, lo, end, c.separator); i >= 0 {
		cut := i + len(c.separator)
		if cut > pos {
			return cut
		}
	}
	return end
}

// lastSeparator returns the start index of the last occurrence of sep
// whose end falls within runes[lo:hi], or -1.
func lastSeparator(runes []rune, lo, hi int, sep []rune) int {
	if len(sep) == 0 {
		return -1
	}
	haystack := string(runes[lo:hi])
	i := strings.LastIndex(haystack, string(sep))
	if i < 0 {
		return -1
	}
	// strings.LastIndex returns a byte offset into haystack; convert
	// back to a rune offset before translating to the full slice.
	return lo + len([]rune(haystack[:i]))
}
