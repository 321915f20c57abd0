package sqlgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func baseRagContext() types.RagContext {
	return types.RagContext{
		AvailableColumns: []string{"imor", "cartera_comercial_total", "activo_total", "roe", "roa"},
	}
}

func completeSpec(metric string, banks []string, tr types.TimeRange) types.QuerySpec {
	return types.QuerySpec{
		Metric:          metric,
		BankNames:       banks,
		TimeRange:       tr,
		ConfidenceScore: 1.0,
	}
}

func TestBuildSQLFromSpecIncompleteReturnsAmbiguous(t *testing.T) {
	g := New(nil, nil, nil)
	spec := types.QuerySpec{RequiresClarification: true, MissingFields: []string{"metric"}}
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.False(t, result.Success)
	assert.Equal(t, types.SQLErrorAmbiguousSpec, result.ErrorCode)
}

func TestBuildSQLFromSpecUnsupportedMetric(t *testing.T) {
	g := New(nil, nil, nil)
	spec := completeSpec("NOT_A_METRIC", nil, types.TimeRange{Type: types.TimeRangeAll})
	result := g.BuildSQLFromSpec(context.Background(), spec, types.RagContext{AvailableColumns: []string{"imor"}})

	require.False(t, result.Success)
	assert.Equal(t, types.SQLErrorUnsupportedMetric, result.ErrorCode)
}

func TestBuildSQLFromSpecTimeseriesTemplate(t *testing.T) {
	g := New(nil, nil, nil)
	spec := completeSpec("IMOR", []string{"INVEX"}, types.TimeRange{Type: types.TimeRangeLastNMonths, N: 6})
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.True(t, result.Success)
	assert.Equal(t, "metric_timeseries", result.Metadata["template"])
	assert.Contains(t, result.SQL, "banco_norm = 'INVEX'")
	assert.Contains(t, result.SQL, "INTERVAL '6 months'")
	assert.Contains(t, result.SQL, "ORDER BY fecha ASC")
}

func TestBuildSQLFromSpecComparisonTemplate(t *testing.T) {
	g := New(nil, nil, nil)
	spec := completeSpec("IMOR", []string{"INVEX", "SISTEMA"}, types.TimeRange{Type: types.TimeRangeLastNMonths, N: 3})
	spec.ComparisonMode = true
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.True(t, result.Success)
	assert.Equal(t, "metric_comparison", result.Metadata["template"])
	assert.Contains(t, result.SQL, "banco_norm IN ('INVEX', 'SISTEMA')")
}

func TestBuildSQLFromSpecAggregateTemplate(t *testing.T) {
	g := New(nil, nil, nil)
	spec := completeSpec("ROE", []string{"INVEX"}, types.TimeRange{Type: types.TimeRangeAll})
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.True(t, result.Success)
	assert.Equal(t, "metric_aggregate", result.Metadata["template"])
	assert.Contains(t, result.SQL, "AVG(roe)")
}

func TestBuildSQLFromSpecRankingTemplate(t *testing.T) {
	g := New(nil, nil, nil)
	spec := completeSpec("ACTIVO_TOTAL", nil, types.TimeRange{Type: types.TimeRangeAll})
	spec.RankingMode = true
	spec.TopN = 3
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.True(t, result.Success)
	assert.Equal(t, "metric_ranking", result.Metadata["template"])
	assert.Contains(t, result.SQL, "GROUP BY banco_norm")
	assert.Contains(t, result.SQL, "LIMIT 3")
}

type fakeNarrator struct {
	sql string
	err error
}

func (f *fakeNarrator) GenerateSQL(ctx context.Context, spec types.QuerySpec, ragCtx types.RagContext, metricColumn string) (string, error) {
	return f.sql, f.err
}

func TestBuildSQLFromSpecFallsBackToLLMWhenNoTemplateMatches(t *testing.T) {
	narrator := &fakeNarrator{sql: "SELECT banco_norm, imor FROM monthly_kpis WHERE banco_norm = 'INVEX' LIMIT 50"}
	g := New(nil, nil, narrator)

	spec := completeSpec("IMOR", []string{"INVEX"}, types.TimeRange{Type: types.TimeRangeAll})
	spec.ComparisonMode = true
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.True(t, result.Success)
	assert.False(t, result.UsedTemplate)
}

func TestBuildSQLFromSpecGenerationFailedWithNoLLM(t *testing.T) {
	g := New(nil, nil, nil)

	spec := completeSpec("IMOR", []string{"INVEX"}, types.TimeRange{Type: types.TimeRangeAll})
	spec.ComparisonMode = true
	result := g.BuildSQLFromSpec(context.Background(), spec, baseRagContext())

	require.False(t, result.Success)
	assert.Equal(t, types.SQLErrorGenerationFailed, result.ErrorCode)
}
