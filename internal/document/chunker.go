package document

import "strings"

const (
	defaultChunkChars   = 1000
	defaultChunkOverlap = 150
)

// Chunker splits a document's pages into overlapping text windows
// sized for the embedding model's effective context.
type Chunker struct {
	chunkChars   int
	chunkOverlap int
}

func NewChunker(chunkChars, chunkOverlap int) *Chunker {
	if chunkChars <= 0 {
		chunkChars = defaultChunkChars
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkChars {
		chunkOverlap = defaultChunkOverlap
	}
	return &Chunker{chunkChars: chunkChars, chunkOverlap: chunkOverlap}
}

// Chunk carves every page's text into chunkChars-sized windows,
// sliding back by chunkOverlap so no sentence is lost at a boundary.
// Chunk IDs are sequential across the whole document, not per page.
func (c *Chunker) Chunk(pages []PageContent) []Chunk {
	var out []Chunk
	nextID := 0
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		for _, window := range c.slide(text) {
			out = append(out, Chunk{ChunkID: nextID, Text: window, Page: page.Page})
			nextID++
		}
	}
	return out
}

func (c *Chunker) slide(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.chunkChars {
		return []string{text}
	}

	step := c.chunkChars - c.chunkOverlap
	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}
