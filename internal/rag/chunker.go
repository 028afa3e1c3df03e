package rag

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators tried coarsest first; the empty string is the hard-cut fallback.
var separators = []string{"\n\n", "\n", " ", ""}

// Split cuts text into chunks of at most size runes, preferring paragraph
// boundaries over line breaks over word breaks, and only cutting mid-word
// when a single word exceeds size. Consecutive chunks overlap by roughly
// overlap runes; the overlap is best-effort at separator boundaries.
// Whitespace-only input yields no chunks.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return splitRecursive(text, size, overlap, separators)
}

func splitRecursive(text string, size, overlap int, seps []string) []string {
	sep := ""
	rest := seps
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		// No separator left: cut a fixed rune window with overlap.
		return windowSplit(text, size, overlap)
	}
	pieces = strings.Split(text, sep)

	var chunks []string
	var pending []string
	for _, piece := range pieces {
		if runeLen(piece) <= size {
			pending = append(pending, piece)
			continue
		}
		chunks = append(chunks, mergePieces(pending, sep, size, overlap)...)
		pending = nil
		chunks = append(chunks, splitRecursive(piece, size, overlap, rest)...)
	}
	chunks = append(chunks, mergePieces(pending, sep, size, overlap)...)
	return chunks
}

// mergePieces packs small pieces back together up to size runes, carrying
// trailing pieces forward into the next chunk until the carried total drops
// under overlap.
func mergePieces(pieces []string, sep string, size, overlap int) []string {
	if len(pieces) == 0 {
		return nil
	}
	sepLen := runeLen(sep)

	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.Join(current, sep)
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		pieceLen := runeLen(piece)
		joined := total + pieceLen
		if len(current) > 0 {
			joined += sepLen
		}
		if joined > size && len(current) > 0 {
			flush()
			// Drop from the front until the retained tail fits the overlap
			// budget alongside the incoming piece.
			for len(current) > 0 && (total > overlap || total+pieceLen+sepLen > size) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += pieceLen
	}
	flush()
	return chunks
}

// windowSplit is the last-resort splitter for runs with no separators at all:
// fixed rune windows advancing by size-overlap, the way a plain sliding
// window chunker works.
func windowSplit(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}
