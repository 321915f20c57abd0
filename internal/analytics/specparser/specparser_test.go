package specparser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func TestParseHeuristicCompleteQuery(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "IMOR de INVEX últimos 3 meses", "", "")

	assert.Equal(t, "IMOR", spec.Metric)
	assert.Contains(t, spec.BankNames, "INVEX")
	assert.Equal(t, types.TimeRangeLastNMonths, spec.TimeRange.Type)
	assert.Equal(t, 3, spec.TimeRange.N)
	assert.False(t, spec.RequiresClarification)
	assert.InDelta(t, 1.0, spec.ConfidenceScore, 0.001)
}

func TestParseHeuristicMissingMetric(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "cómo les fue a los bancos el mes pasado", "", "")

	assert.Empty(t, spec.Metric)
	assert.True(t, spec.RequiresClarification)
	assert.Contains(t, spec.MissingFields, "metric")
	assert.Less(t, spec.ConfidenceScore, 1.0)
}

func TestParseRankingMetricExemptFromTimeRangePenalty(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "ranking de bancos por activos", "", "")

	require.Equal(t, "ACTIVO_TOTAL", spec.Metric)
	assert.NotContains(t, spec.MissingFields, "time_range")
}

func TestParseYearExtraction(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "cartera comercial 2024", "", "")

	assert.Equal(t, "CARTERA_COMERCIAL", spec.Metric)
	assert.Equal(t, types.TimeRangeYear, spec.TimeRange.Type)
	assert.Equal(t, "2024-01-01", spec.TimeRange.StartDate)
	assert.Equal(t, "2024-12-31", spec.TimeRange.EndDate)
}

func TestParseComparisonModeFromMultipleBanks(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "compara IMOR de INVEX vs Banorte", "", "")

	assert.True(t, spec.ComparisonMode)
}

func TestParseUnresolvedBankTokenPenalizesConfidence(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "compara IMOR de INVEX vs Intercam", "", "")

	assert.Contains(t, spec.MissingFields, "bank (unsupported)")
	assert.True(t, spec.RequiresClarification)
	assert.Less(t, spec.ConfidenceScore, 1.0)
}

func TestParseKnownBanksNeverPenalized(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "IMOR de INVEX últimos 3 meses", "", "")

	assert.NotContains(t, spec.MissingFields, "bank (unsupported)")
}

func TestParseRankingKeywordSetsRankingMode(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "ranking de bancos por activo total", "", "")

	assert.True(t, spec.RankingMode)
}

func TestParseExplicitTopNOverridesDefault(t *testing.T) {
	p := New(nil, nil)
	spec := p.Parse(context.Background(), "ranking de bancos por activo total, top 5", "", "")

	assert.Equal(t, 5, spec.TopN)
}

func TestExtractJSONBlockStripsFence(t *testing.T) {
	raw := "```json\n{\"metric\":\"IMOR\"}\n```"
	assert.Equal(t, `{"metric":"IMOR"}`, extractJSONBlock(raw))
}

func TestExtractJSONBlockPlain(t *testing.T) {
	raw := `{"metric":"IMOR"}`
	assert.Equal(t, raw, extractJSONBlock(raw))
}
