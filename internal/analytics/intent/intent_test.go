package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisambiguateExactIDResolves(t *testing.T) {
	d := New(nil)
	result := d.Disambiguate("IMOR")
	assert.False(t, result.IsAmbiguous)
	assert.Equal(t, "IMOR", result.ResolvedMetric)
}

func TestDisambiguateKeywordResolves(t *testing.T) {
	d := New(nil)
	result := d.Disambiguate("cartera comercial")
	assert.False(t, result.IsAmbiguous)
	assert.Equal(t, "CARTERA_COMERCIAL", result.ResolvedMetric)
}

func TestDisambiguateUnknownFallsBackToPopularOptions(t *testing.T) {
	d := New(nil)
	result := d.Disambiguate("xyzxyzxyz completamente desconocido")
	assert.True(t, result.IsAmbiguous)
	assert.NotEmpty(t, result.Options)
	assert.Equal(t, "tema desconocido", result.MissingDimension)
}
