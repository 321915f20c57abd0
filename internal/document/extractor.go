package document

import (
	"fmt"
	"strings"
)

// pageBreak separates extracted pages the same way file_ingest.py's
// _cache_pages joins them before writing the Redis full-text cache.
const pageBreak = "\n\n---PAGE BREAK---\n\n"

// Extractor turns raw file bytes into ordered pages of text.
type Extractor interface {
	Extract(contentType string, raw []byte) ([]PageContent, error)
}

// TextExtractor handles plain-text and markdown uploads directly and
// treats everything else as a single opaque page — callers needing
// real PDF/image extraction plug in a richer Extractor; this is the
// tier every content type can fall back to.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

func (e *TextExtractor) Extract(contentType string, raw []byte) ([]PageContent, error) {
	switch {
	case strings.HasPrefix(contentType, "text/"):
		return splitPlainText(raw), nil
	case contentType == "application/pdf":
		return nil, fmt.Errorf("pdf extraction requires a tiered extractor, got none for %s", contentType)
	case strings.HasPrefix(contentType, "image/"):
		return nil, fmt.Errorf("image extraction requires OCR, got none for %s", contentType)
	default:
		return []PageContent{{Page: 1, Text: string(raw)}}, nil
	}
}

func splitPlainText(raw []byte) []PageContent {
	text := string(raw)
	parts := strings.Split(text, "\f") // form-feed as a manual page break
	pages := make([]PageContent, 0, len(parts))
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		pages = append(pages, PageContent{Page: i + 1, Text: trimmed})
	}
	if len(pages) == 0 {
		pages = append(pages, PageContent{Page: 1, Text: ""})
	}
	return pages
}

// JoinPages concatenates pages the way the full-text Redis cache
// expects them, for the v1 cached-text fallback path in the chat pipeline.
func JoinPages(pages []PageContent) string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, pageBreak)
}

// TieredExtractor tries a primary extractor (e.g. OCR/PDF parsing)
// first and falls back to TextExtractor on failure, matching
// file_ingest.py's willingness to proceed with degraded content
// rather than fail the whole upload.
type TieredExtractor struct {
	primary  Extractor
	fallback Extractor
}

func NewTieredExtractor(primary Extractor) *TieredExtractor {
	return &TieredExtractor{primary: primary, fallback: NewTextExtractor()}
}

func (e *TieredExtractor) Extract(contentType string, raw []byte) ([]PageContent, error) {
	if e.primary != nil {
		if pages, err := e.primary.Extract(contentType, raw); err == nil {
			return pages, nil
		}
	}
	return e.fallback.Extract(contentType, raw)
}
