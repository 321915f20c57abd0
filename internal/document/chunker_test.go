package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkShortPageReturnsSingleChunk(t *testing.T) {
	c := NewChunker(1000, 150)
	chunks := c.Chunk([]PageContent{{Page: 1, Text: "hola mundo"}})
	assert.Len(t, chunks, 1)
	assert.Equal(t, "hola mundo", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestChunkLongPageSlidesWithOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("a", 250)
	chunks := c.Chunk([]PageContent{{Page: 1, Text: text}})
	assert.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkID)
	}
}

func TestChunkSkipsBlankPages(t *testing.T) {
	c := NewChunker(1000, 150)
	chunks := c.Chunk([]PageContent{{Page: 1, Text: "   "}, {Page: 2, Text: "contenido real"}})
	assert.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
}

func TestChunkIDsAreSequentialAcrossPages(t *testing.T) {
	c := NewChunker(1000, 150)
	chunks := c.Chunk([]PageContent{{Page: 1, Text: "uno"}, {Page: 2, Text: "dos"}, {Page: 3, Text: "tres"}})
	assert.Equal(t, []int{0, 1, 2}, []int{chunks[0].ChunkID, chunks[1].ChunkID, chunks[2].ChunkID})
}
