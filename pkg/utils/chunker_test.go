package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("SplitText = %v, want single chunk", chunks)
	}
}

func TestSplitTextPrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("This is a sentence about mulching berry bushes. ", 10)
	chunks := SplitText(text, 120, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(strings.TrimSpace(c), ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c)
		}
	}
}

func TestSplitTextCoversWholeText(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 50)
	chunks := SplitText(text, 80, 15)

	joined := strings.Join(chunks, "")
	// With overlap the concatenation is longer, but the tail must survive.
	if !strings.Contains(joined, "abcdefghij") {
		t.Error("content lost during splitting")
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.TrimSpace(text), strings.TrimSpace(last)) {
		t.Errorf("last chunk is not the tail of the text: %q", last)
	}
}

func TestSplitTextTerminatesWithPathologicalOverlap(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks := SplitText(text, 50, 50)
	if len(chunks) == 0 || len(chunks) > 20 {
		t.Errorf("unexpected chunk count %d with overlap == chunkSize", len(chunks))
	}
}
