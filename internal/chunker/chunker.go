package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"scholargraph/pkg/types"
)

const (
	// DefaultChunkSizeWords is the target chunk size in whitespace-delimited
	// words.
	DefaultChunkSizeWords = 3500

	// DefaultOverlapWords is the number of words shared between consecutive
	// chunks.
	DefaultOverlapWords = 400
)

// Chunker splits extracted document text into overlapping word-window chunks.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the given chunk size and overlap, both in words.
// Zero or negative values fall back to the defaults. The overlap must be
// strictly smaller than the chunk size or the window would never advance.
func New(sizeWords, overlapWords int) (*Chunker, error) {
	if sizeWords <= 0 {
		sizeWords = DefaultChunkSizeWords
	}
	if overlapWords < 0 {
		overlapWords = DefaultOverlapWords
	}
	if overlapWords >= sizeWords {
		return nil, fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)", overlapWords, sizeWords)
	}
	return &Chunker{size: sizeWords, overlap: overlapWords}, nil
}

// Chunk splits text into ordered, offset-tracked chunks. Each chunk after the
// first begins overlap words before the previous chunk's nominal end; the
// final chunk may be shorter than the target size. A document shorter than
// one chunk yields exactly one chunk whose content equals the full text.
// Empty input returns types.ErrEmptyDocument so batch callers can report the
// file and move on.
func (c *Chunker) Chunk(text string) ([]types.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyDocument
	}

	starts := wordStarts(text)
	if len(starts) <= c.size {
		return []types.Chunk{{
			Seq:         0,
			Content:     text,
			StartOffset: 0,
			EndOffset:   len(text),
			WordCount:   len(starts),
		}}, nil
	}

	stride := c.size - c.overlap
	chunks := make([]types.Chunk, 0, len(starts)/stride+1)

	for begin := 0; begin < len(starts); begin += stride {
		end := begin + c.size
		if end > len(starts) {
			end = len(starts)
		}

		startOff := starts[begin]
		if begin == 0 {
			startOff = 0
		}
		endOff := len(text)
		if end < len(starts) {
			endOff = starts[end]
		}

		chunks = append(chunks, types.Chunk{
			Seq:         len(chunks),
			Content:     text[startOff:endOff],
			StartOffset: startOff,
			EndOffset:   endOff,
			WordCount:   end - begin,
		})

		if end == len(starts) {
			break
		}
	}

	return chunks, nil
}

// Size returns the configured chunk size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }

// wordStarts returns the byte offset of every whitespace-delimited word.
func wordStarts(text string) []int {
	starts := make([]int, 0, len(text)/6)
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	return starts
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(wordStarts(text))
}
