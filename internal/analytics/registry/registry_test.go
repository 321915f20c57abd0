package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExactTopic(t *testing.T) {
	r := Default()
	canonical, ok := r.Resolve(context.Background(), "IMOR")
	require.True(t, ok)
	assert.Equal(t, "IMOR", canonical)
}

func TestResolveAliasWithinSentence(t *testing.T) {
	r := Default()
	canonical, ok := r.Resolve(context.Background(), "cual es la cartera vencida de invex")
	require.True(t, ok)
	assert.Equal(t, "CARTERA_VENCIDA", canonical)
}

func TestResolveSkipsBankTokens(t *testing.T) {
	r := Default()
	canonical, ok := r.Resolve(context.Background(), "invex")
	assert.False(t, ok)
	assert.Empty(t, canonical)
}

func TestResolveFuzzyShortInput(t *testing.T) {
	r := Default()
	canonical, ok := r.Resolve(context.Background(), "morosidd")
	require.True(t, ok)
	assert.Equal(t, "IMOR", canonical)
}

func TestResolveUnknownPhrase(t *testing.T) {
	r := Default()
	canonical, ok := r.Resolve(context.Background(), "precio del cafe en colombia")
	assert.False(t, ok)
	assert.Empty(t, canonical)
}

func TestSafeColumnRejectsUnregistered(t *testing.T) {
	r := Default()
	_, err := r.SafeColumn("DROP TABLE monthly_kpis")
	require.Error(t, err)
}

func TestSafeColumnResolvesWhitelisted(t *testing.T) {
	r := Default()
	col, err := r.SafeColumn("IMOR")
	require.NoError(t, err)
	assert.Equal(t, "imor", col)
}

func TestResolveBank(t *testing.T) {
	r := Default()
	canonical, ok := r.ResolveBank("bancomer")
	require.True(t, ok)
	assert.Equal(t, "BBVA", canonical)
}

func TestIsRankingMetricExemption(t *testing.T) {
	r := Default()
	assert.True(t, r.IsRankingMetric("ACTIVO_TOTAL"))
	assert.True(t, r.IsRankingMetric("MARKET_SHARE"))
	assert.False(t, r.IsRankingMetric("IMOR"))
}

func TestBetterDirectionForRatios(t *testing.T) {
	r := Default()
	assert.Equal(t, "lower", string(r.BetterDirection("IMOR")))
	assert.Equal(t, "higher", string(r.BetterDirection("ICAP")))
	assert.Equal(t, "higher", string(r.BetterDirection("MARKET_SHARE")))
}
