package rag

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	if got := Split("", 1000, 200); len(got) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(got))
	}
	if got := Split("   \n\n \t ", 1000, 200); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace text, got %d", len(got))
	}
}

func TestSplitShortText(t *testing.T) {
	chunks := Split("hello world", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Errorf("expected chunk to equal input, got %q", chunks[0])
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	p1 := strings.Repeat("a", 10)
	p2 := strings.Repeat("b", 10)
	p3 := strings.Repeat("c", 10)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	chunks := Split(text, 12, 3)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}
	for i, want := range []string{p1, p2, p3} {
		if chunks[i] != want {
			t.Errorf("chunk %d: expected %q, got %q", i, want, chunks[i])
		}
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("some ordinary words in a sentence. ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		}
	}
	chunks := Split(b.String(), 120, 30)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 120 {
			t.Errorf("chunk %d has %d runes, exceeds size 120", i, n)
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplitHardCutWithOverlap(t *testing.T) {
	// A single 2500-rune word forces the fixed-window fallback.
	text := strings.Repeat("x", 2500)
	chunks := Split(text, 1000, 200)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 || len(chunks[2]) != 900 {
		t.Errorf("unexpected chunk lengths: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	words := []string{"aaaa", "bbbb", "cccc"}
	text := strings.Join(words, " ")

	chunks := Split(text, 10, 5)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "aaaa bbbb" {
		t.Errorf("expected first chunk %q, got %q", "aaaa bbbb", chunks[0])
	}
	if chunks[1] != "bbbb cccc" {
		t.Errorf("expected second chunk %q, got %q", "bbbb cccc", chunks[1])
	}
}

func TestSplitPreservesContentOrder(t *testing.T) {
	text := "first paragraph here.\n\nsecond paragraph follows.\n\nthird one closes."
	chunks := Split(text, 30, 5)

	joined := strings.Join(chunks, " ")
	pos := 0
	for _, word := range strings.Fields(strings.ReplaceAll(text, "\n", " ")) {
		idx := strings.Index(joined[pos:], word)
		if idx < 0 {
			t.Fatalf("word %q missing or out of order in chunks %q", word, chunks)
		}
		pos += idx
	}
}
