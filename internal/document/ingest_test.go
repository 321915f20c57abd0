package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashIsDeterministic(t *testing.T) {
	h1 := contentHash([]byte("same bytes"))
	h2 := contentHash([]byte("same bytes"))
	assert.Equal(t, h1, h2)
}

func TestContentHashDiffersByContent(t *testing.T) {
	assert.NotEqual(t, contentHash([]byte("a")), contentHash([]byte("b")))
}

func TestCacheKeyFormat(t *testing.T) {
	assert.Equal(t, "doc:text:abc123", cacheKey("abc123"))
}
