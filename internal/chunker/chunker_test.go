package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/documind-ai/documind-go/internal/core"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, overlap, err)
	}
	return c
}

func Test_New_RejectsBadParameters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -10, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.size, tc.overlap)
			if !errors.Is(err, core.ErrConfig) {
				t.Errorf("New(%d, %d) = %v, want ErrConfig", tc.size, tc.overlap, err)
			}
		})
	}
}

func Test_Chunk_KnownOffsets(t *testing.T) {
	t.Parallel()

	// 1000 bytes at size=300, overlap=50 must yield exactly these spans.
	text := strings.Repeat("a", 1000)
	c := mustChunker(t, 300, 50)

	chunks := c.Chunk("doc-1", text)

	want := [][2]int{{0, 300}, {250, 550}, {500, 800}, {750, 1000}}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].StartOffset != w[0] || chunks[i].EndOffset != w[1] {
			t.Errorf("chunk %d spans [%d, %d), want [%d, %d)",
				i, chunks[i].StartOffset, chunks[i].EndOffset, w[0], w[1])
		}
		if chunks[i].SequenceIndex != i {
			t.Errorf("chunk %d has sequence index %d", i, chunks[i].SequenceIndex)
		}
	}
}

func Test_Chunk_RoundTripAndCoverage(t *testing.T) {
	t.Parallel()

	texts := []string{
		"short",
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40),
		strings.Repeat("x", 999),
		strings.Repeat("x", 1001),
	}

	c := mustChunker(t, 250, 40)

	for _, text := range texts {
		chunks := c.Chunk("doc-rt", text)

		covered := make([]bool, len(text))
		for _, ch := range chunks {
			if ch.Text != text[ch.StartOffset:ch.EndOffset] {
				t.Fatalf("chunk %d text does not round-trip through its offsets", ch.SequenceIndex)
			}
			for i := ch.StartOffset; i < ch.EndOffset; i++ {
				covered[i] = true
			}
		}
		for i, ok := range covered {
			if !ok {
				t.Fatalf("byte %d of a %d-byte text is not covered by any chunk", i, len(text))
			}
		}
	}
}

func Test_Chunk_OverlapInvariant(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("b", 2000)
	overlap := 75
	c := mustChunker(t, 400, overlap)

	chunks := c.Chunk("doc-ov", text)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	// Adjacent chunks share exactly `overlap` bytes, except possibly at
	// the truncated final chunk.
	for i := 0; i < len(chunks)-2; i++ {
		got := chunks[i].EndOffset - chunks[i+1].StartOffset
		if got != overlap {
			t.Errorf("chunks %d/%d overlap by %d bytes, want %d", i, i+1, got, overlap)
		}
	}
}

func Test_Chunk_ShortTextYieldsOneChunk(t *testing.T) {
	t.Parallel()

	c := mustChunker(t, 300, 50)
	chunks := c.Chunk("doc-s", "tiny")

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != 4 || chunks[0].Text != "tiny" {
		t.Errorf("single chunk = %+v, want span [0, 4) over %q", chunks[0], "tiny")
	}
}

func Test_Chunk_ExactMultipleHasNoDegenerateTail(t *testing.T) {
	t.Parallel()

	// Text length equal to chunk size must not produce a duplicate tail.
	c := mustChunker(t, 300, 50)
	chunks := c.Chunk("doc-e", strings.Repeat("z", 300))

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func Test_Chunk_EmptyTextYieldsNothing(t *testing.T) {
	t.Parallel()

	c := mustChunker(t, 300, 50)
	if chunks := c.Chunk("doc-0", ""); len(chunks) != 0 {
		t.Errorf("got %d chunks for empty text, want 0", len(chunks))
	}
}

func Test_Chunk_IDsAreStableAcrossRuns(t *testing.T) {
	t.Parallel()

	c := mustChunker(t, 100, 10)
	text := strings.Repeat("w", 450)

	first := c.Chunk("doc-id", text)
	second := c.Chunk("doc-id", text)

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID changed between runs", i)
		}
	}
}
