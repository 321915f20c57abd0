package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointIDIsDeterministic(t *testing.T) {
	id1 := pointID("doc-123", 4)
	id2 := pointID("doc-123", 4)
	assert.Equal(t, id1, id2)
}

func TestPointIDDiffersByChunk(t *testing.T) {
	assert.NotEqual(t, pointID("doc-123", 1), pointID("doc-123", 2))
}

func TestPointIDDiffersByDocument(t *testing.T) {
	assert.NotEqual(t, pointID("doc-123", 1), pointID("doc-456", 1))
}

func TestPointIDIsValidUUIDFormat(t *testing.T) {
	id := pointID("doc-abc", 0)
	assert.Len(t, id, 36)
	assert.Equal(t, "-", string(id[8]))
}
