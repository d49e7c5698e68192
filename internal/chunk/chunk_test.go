package chunk

import (
	"errors"
	"strings"
	"testing"
)

func mustChunker(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v) failed: %v", cfg, err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero size", Config{Size: 0, Overlap: 0}},
		{"negative size", Config{Size: -1, Overlap: 0}},
		{"negative overlap", Config{Size: 100, Overlap: -1}},
		{"overlap equals size", Config{Size: 100, Overlap: 100}},
		{"overlap exceeds size", Config{Size: 100, Overlap: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New(%+v) error = %v, want ErrInvalidConfig", tt.cfg, err)
			}
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := mustChunker(t, Config{Size: 512, Overlap: 50})
	if pieces := c.Split(""); len(pieces) != 0 {
		t.Errorf("Split(\"\") = %d pieces, want 0", len(pieces))
	}
}

func TestSplitShortInput(t *testing.T) {
	c := mustChunker(t, Config{Size: 512, Overlap: 50})
	pieces := c.Split("short text")
	if len(pieces) != 1 {
		t.Fatalf("got %d pieces, want 1", len(pieces))
	}
	if pieces[0].Text != "short text" {
		t.Errorf("Text = %q, want original text", pieces[0].Text)
	}
	if pieces[0].Index != 0 || pieces[0].Offset != 0 {
		t.Errorf("Index/Offset = %d/%d, want 0/0", pieces[0].Index, pieces[0].Offset)
	}
}

func TestSplitNoEmptyPieces(t *testing.T) {
	c := mustChunker(t, Config{Size: 10, Overlap: 3, Separator: "\n"})
	input := strings.Repeat("line\n", 50)
	for _, p := range c.Split(input) {
		if p.Text == "" {
			t.Fatalf("piece %d is empty", p.Index)
		}
	}
}

func TestSplitPieceLengthBound(t *testing.T) {
	const size, overlap = 64, 16
	c := mustChunker(t, Config{Size: size, Overlap: overlap})
	input := strings.Repeat("word ", 500)

	for _, p := range c.Split(input) {
		if n := len([]rune(p.Text)); n > size+overlap {
			t.Errorf("piece %d length %d exceeds size+overlap (%d)", p.Index, n, size+overlap)
		}
	}
}

// reconstruct joins pieces back into the original text by dropping
// each piece's overlap prefix.
func reconstruct(pieces []Piece) string {
	var sb strings.Builder
	covered := 0
	for _, p := range pieces {
		runes := []rune(p.Text)
		skip := covered - p.Offset
		sb.WriteString(string(runes[skip:]))
		covered = p.Offset + len(runes)
	}
	return sb.String()
}

func TestSplitRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"paragraphs":    strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 80),
		"no separators": strings.Repeat("x", 3000),
		"unicode":       strings.Repeat("嵌入向量測試 résumé naïve\n", 120),
		"single line":   "just one line of text",
		"trailing sep":  "alpha\nbeta\ngamma\n",
	}

	c := mustChunker(t, Config{Size: 512, Overlap: 50, Separator: "\n"})
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			pieces := c.Split(input)
			if len(pieces) == 0 {
				t.Fatal("non-empty input produced no pieces")
			}
			if got := reconstruct(pieces); got != input {
				t.Errorf("round trip mismatch: got %d runes, want %d", len([]rune(got)), len([]rune(input)))
			}
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	c := mustChunker(t, Config{Size: 100, Overlap: 20})
	input := strings.Repeat("deterministic chunking input\n", 40)

	first := c.Split(input)
	second := c.Split(input)

	if len(first) != len(second) {
		t.Fatalf("piece counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("piece %d differs between runs", i)
		}
	}
}

func TestSplitPrefersSeparator(t *testing.T) {
	// One separator placed inside the search window before the target
	// size: the cut should land right after it.
	c := mustChunker(t, Config{Size: 100, Overlap: 0, Separator: "\n"})
	input := strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 200)

	pieces := c.Split(input)
	if len(pieces) < 2 {
		t.Fatalf("got %d pieces, want at least 2", len(pieces))
	}
	if !strings.HasSuffix(pieces[0].Text, "\n") {
		t.Errorf("first piece should end at separator, got %q...", pieces[0].Text[:10])
	}
	if len([]rune(pieces[0].Text)) != 91 {
		t.Errorf("first piece length = %d, want 91 (cut after separator)", len([]rune(pieces[0].Text)))
	}
}

func TestSplitHardCutWithoutSeparator(t *testing.T) {
	c := mustChunker(t, Config{Size: 100, Overlap: 10})
	input := strings.Repeat("z", 250)

	pieces := c.Split(input)
	if len([]rune(pieces[0].Text)) != 100 {
		t.Errorf("first piece length = %d, want hard cut at 100", len([]rune(pieces[0].Text)))
	}
}

func TestSplitOverlapCarried(t *testing.T) {
	c := mustChunker(t, Config{Size: 100, Overlap: 25})
	input := strings.Repeat("m", 300)

	pieces := c.Split(input)
	if len(pieces) < 2 {
		t.Fatalf("got %d pieces, want at least 2", len(pieces))
	}

	first := []rune(pieces[0].Text)
	second := []rune(pieces[1].Text)
	tail := string(first[len(first)-25:])
	head := string(second[:25])
	if tail != head {
		t.Errorf("overlap mismatch: tail %q, head %q", tail, head)
	}
	if pieces[1].Offset != len(first)-25 {
		t.Errorf("second piece offset = %d, want %d", pieces[1].Offset, len(first)-25)
	}
}
