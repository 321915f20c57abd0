package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func sampleRows() []types.DataRow {
	return []types.DataRow{
		{Bank: "INVEX", Date: "2026-01-31", Value: 4.2},
		{Bank: "INVEX", Date: "2026-02-28", Value: 4.5},
		{Bank: "SISTEMA", Date: "2026-01-31", Value: 3.9},
		{Bank: "SISTEMA", Date: "2026-02-28", Value: 3.8},
	}
}

func TestSelectLayoutExplicitTableHintWins(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, Visualization: "evolution"}
	spec := types.QuerySpec{VisualizationType: types.VisualizationTable}
	assert.Equal(t, "table", b.selectLayout(result, spec, ""))
}

func TestSelectLayoutDetectsYoYKeyword(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, Visualization: "evolution"}
	assert.Equal(t, "yoy", b.selectLayout(result, types.QuerySpec{}, "crecimiento interanual de cartera"))
}

func TestSelectLayoutDetectsVariationBySuffix(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, Visualization: "evolution"}
	spec := types.QuerySpec{Metric: "CARTERA_TOTAL_VARIACION_MM"}
	assert.Equal(t, "variation", b.selectLayout(result, spec, ""))
}

func TestSelectLayoutRankingFamily(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, Visualization: "institution_ranking"}
	assert.Equal(t, "ranking", b.selectLayout(result, types.QuerySpec{}, ""))
}

func TestSelectLayoutSingleBankFallsBackToSingleSeries(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, Visualization: "point_value", BankNames: []string{"INVEX"}}
	assert.Equal(t, "single_series", b.selectLayout(result, types.QuerySpec{}, ""))
}

func TestBuildSkipsNonDataResults(t *testing.T) {
	b := New(nil)
	result := types.AnalyticsResult{Type: types.AnalyticsResultError, Message: "boom"}
	out := b.Build(result, types.QuerySpec{}, "")
	assert.Nil(t, out.PlotlyConfig)
}

func TestBuildEvolutionProducesOneTracePerBankWithINVEXThickened(t *testing.T) {
	result := types.AnalyticsResult{
		Type: types.AnalyticsResultData, Visualization: "evolution",
		MetricName: "IMOR", MetricType: types.SemanticRatio, Rows: sampleRows(),
	}
	b := New(nil)
	out := b.Build(result, types.QuerySpec{}, "")
	cfg := out.PlotlyConfig
	data, ok := cfg["data"].([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, data, 2)
}

func TestBuildRankingExcludesSistemaAndAddsAverageLine(t *testing.T) {
	result := types.AnalyticsResult{
		Type: types.AnalyticsResultData, Visualization: "institution_ranking",
		MetricName: "IMOR",
		Ranking: []types.RankingRow{
			{Bank: "INVEX", Average: 2.1},
			{Bank: "SISTEMA", Average: 3.0},
			{Bank: "Banorte", Average: 2.8},
		},
	}
	b := New(nil)
	out := b.Build(result, types.QuerySpec{}, "")
	data := out.PlotlyConfig["data"].([]map[string]interface{})
	bars := data[0]
	banks := bars["y"].([]string)
	assert.NotContains(t, banks, "SISTEMA")
	assert.Len(t, banks, 2)
}

func TestBuildTableRendersHeaderAndCells(t *testing.T) {
	result := types.AnalyticsResult{Type: types.AnalyticsResultData, MetricName: "IMOR", Rows: sampleRows()}
	spec := types.QuerySpec{VisualizationType: types.VisualizationTable}
	b := New(nil)
	out := b.Build(result, spec, "")
	data := out.PlotlyConfig["data"].([]map[string]interface{})
	assert.Equal(t, "table", data[0]["type"])
}

func TestBuildStackedBarOneTracePerField(t *testing.T) {
	fields := map[string][]types.DataRow{
		"etapa_1": {{Bank: "INVEX", Date: "2026-01-31", Value: 80.0}},
		"etapa_2": {{Bank: "INVEX", Date: "2026-01-31", Value: 15.0}},
		"etapa_3": {{Bank: "INVEX", Date: "2026-01-31", Value: 5.0}},
	}
	cfg := buildStackedBar(fields, []string{ColorEtapa1, ColorEtapa2, ColorEtapa3})
	data := cfg["data"].([]map[string]interface{})
	assert.Len(t, data, 3)
	assert.Equal(t, "stack", cfg["layout"].(map[string]interface{})["barmode"])
}

func TestBankColorAssignsSemanticColorByDirection(t *testing.T) {
	assert.Equal(t, ColorINVEX, bankColor("INVEX", 2.0, 3.0, types.BetterLower))
	assert.Equal(t, colorAboveAverage, bankColor("Banorte", 2.0, 3.0, types.BetterLower))
	assert.Equal(t, colorBelowAverage, bankColor("Banorte", 4.0, 3.0, types.BetterLower))
}
