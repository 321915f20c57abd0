package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextExtractorSplitsOnFormFeed(t *testing.T) {
	e := NewTextExtractor()
	pages, err := e.Extract("text/plain", []byte("pagina uno\fpagina dos"))
	assert.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, "pagina uno", pages[0].Text)
	assert.Equal(t, "pagina dos", pages[1].Text)
}

func TestTextExtractorRejectsPDFWithoutTieredFallback(t *testing.T) {
	e := NewTextExtractor()
	_, err := e.Extract("application/pdf", []byte("%PDF-1.4"))
	assert.Error(t, err)
}

func TestTieredExtractorFallsBackWhenPrimaryFails(t *testing.T) {
	failing := failingExtractor{}
	e := NewTieredExtractor(failing)
	pages, err := e.Extract("application/pdf", []byte("raw bytes"))
	assert.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestJoinPagesInsertsPageBreakMarker(t *testing.T) {
	joined := JoinPages([]PageContent{{Page: 1, Text: "a"}, {Page: 2, Text: "b"}})
	assert.Contains(t, joined, "PAGE BREAK")
}

type failingExtractor struct{}

func (failingExtractor) Extract(contentType string, raw []byte) ([]PageContent, error) {
	return nil, errors.New("primary extractor unavailable")
}
