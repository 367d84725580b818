package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholargraph/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New(0, -1)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSizeWords, c.Size())
	assert.Equal(t, DefaultOverlapWords, c.Overlap())
}

func TestNew_OverlapMustBeSmaller(t *testing.T) {
	_, err := New(100, 100)
	assert.Error(t, err)

	_, err = New(100, 150)
	assert.Error(t, err)
}

func TestChunk_EmptyDocument(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		chunks, err := c.Chunk(text)
		assert.ErrorIs(t, err, types.ErrEmptyDocument)
		assert.Empty(t, chunks)
	}
}

func TestChunk_ShortDocumentSingleChunk(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	text := "federated learning preserves privacy by training locally"
	chunks, err := c.Chunk(text)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(text), chunks[0].EndOffset)
	assert.Equal(t, 7, chunks[0].WordCount)
}

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunk_TenThousandWords(t *testing.T) {
	c, err := New(3500, 400)
	require.NoError(t, err)

	text := makeWords(10000)
	chunks, err := c.Chunk(text)
	require.NoError(t, err)

	// Stride 3100: chunks start at words 0, 3100, 6200, 9300.
	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
		if i < len(chunks)-1 {
			assert.Equal(t, 3500, chunk.WordCount)
		}
	}
	assert.Equal(t, 700, chunks[3].WordCount)

	// Consecutive chunks overlap by exactly 400 words.
	for i := 0; i < len(chunks)-1; i++ {
		cur := strings.Fields(chunks[i].Content)
		next := strings.Fields(chunks[i+1].Content)
		assert.Equal(t, cur[len(cur)-400:], next[:400], "chunks %d and %d", i, i+1)
	}
}

func TestChunk_RoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		words   int
	}{
		{"even split", 50, 10, 400},
		{"ragged tail", 50, 10, 437},
		{"no overlap", 50, 0, 200},
		{"large overlap", 30, 25, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.size, tc.overlap)
			require.NoError(t, err)

			text := makeWords(tc.words)
			chunks, err := c.Chunk(text)
			require.NoError(t, err)

			var b strings.Builder
			for i, chunk := range chunks {
				content := chunk.Content
				if i > 0 {
					// Drop the duplicated overlap using the offsets.
					dup := chunks[i-1].EndOffset - chunk.StartOffset
					content = content[dup:]
				}
				b.WriteString(content)
			}
			assert.Equal(t, text, b.String())
		})
	}
}

func TestChunk_OffsetsMonotonic(t *testing.T) {
	c, err := New(40, 8)
	require.NoError(t, err)

	text := makeWords(500)
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
		assert.Greater(t, chunks[i].EndOffset, chunks[i-1].EndOffset)
		// Overlap window only: the next chunk starts before the previous
		// ends but after its start.
		assert.Less(t, chunks[i].StartOffset, chunks[i-1].EndOffset)
	}

	// Offsets slice back into the source.
	for _, chunk := range chunks {
		assert.Equal(t, text[chunk.StartOffset:chunk.EndOffset], chunk.Content)
	}
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("  \n "))
	assert.Equal(t, 3, CountWords(" one\ttwo\nthree "))
}
