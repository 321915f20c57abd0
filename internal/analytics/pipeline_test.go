package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/specparser"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlgen"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlvalidator"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/viz"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// These tests drive the literal S1-S4 scenarios from spec.md §8
// through the real parser→SQL-generator→visualization-builder chain.
// S1/S3 stop short of Pipeline.Answer() itself: Answer's dispatch
// branch calls into *service.Service, which issues gorm queries
// against a live Postgres connection this module has no test driver
// for (go.mod carries no sqlite/in-memory gorm dialect). Exercising
// those branches here would require either a live database or a
// hand-rolled stub standing in for *service.Service, which the
// package does not expose as an interface. S1/S3 are instead verified
// at every stage that does not touch a database: QuerySpec parsing,
// SQL template generation/validation, and chart layout selection.
// S2 needs no database at all (the clarification path returns before
// dispatch) and is driven through the real Pipeline.Answer() entry
// point. S5 (session isolation) and S6 (empty-stream fallback) are
// outside this package's scope; S5 has no test in this module, and
// chat_pipline's own suite covers the S6 fallback messages.

func testRagContext(reg *registry.Registry) types.RagContext {
	return types.RagContext{AvailableColumns: reg.AllColumns()}
}

// S1: "IMOR de INVEX últimos 3 meses" → metric/bank/time_range parse
// correctly, SQL has the expected WHERE/LIMIT shape, and the rendered
// chart is a line_chart with INVEX thickened to width 4.
func TestScenarioS1IMORInvexLastThreeMonths(t *testing.T) {
	reg := registry.Default()
	parser := specparser.New(nil, nil)
	gen := sqlgen.New(reg, nil, nil)
	builder := viz.New(reg)

	spec := parser.Parse(context.Background(), "IMOR de INVEX últimos 3 meses", "", "")
	require.Equal(t, "IMOR", spec.Metric)
	require.Equal(t, []string{"INVEX"}, spec.BankNames)
	require.Equal(t, types.TimeRangeLastNMonths, spec.TimeRange.Type)
	require.Equal(t, 3, spec.TimeRange.N)

	sqlResult := gen.BuildSQLFromSpec(context.Background(), spec, testRagContext(reg))
	require.True(t, sqlResult.Success)
	assert.Contains(t, sqlResult.SQL, "banco_norm = 'INVEX'")
	assert.Contains(t, sqlResult.SQL, "fecha >= (CURRENT_DATE - INTERVAL '3 months')")
	assert.Contains(t, sqlResult.SQL, "LIMIT 1000")

	result := types.AnalyticsResult{
		Type:          types.AnalyticsResultData,
		Visualization: "line_chart",
		MetricType:    types.SemanticRatio,
		BankNames:     []string{"INVEX"},
		Rows: []types.DataRow{
			{Bank: "INVEX", Date: "2026-05-01", Value: 0.02},
			{Bank: "INVEX", Date: "2026-06-01", Value: 0.021},
		},
	}
	rendered := builder.Build(result, spec, "IMOR de INVEX últimos 3 meses")
	assert.Equal(t, "line_chart", rendered.Visualization)
	assert.Equal(t, "ratio", string(rendered.MetricType))

	require.NotNil(t, rendered.PlotlyConfig)
	traces, ok := rendered.PlotlyConfig["data"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, traces, 1)
	line, ok := traces[0]["line"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4, line["width"])
	assert.Equal(t, "#E45756", line["color"])
}

// S2 (literal text): "Compara ICOR de INVEX vs Banorte" parses as a
// two-bank comparison, not a clarification — BANORTE is a registered
// alias (registry/builtin.go), so this exact phrase resolves cleanly
// rather than requesting clarification as spec.md's literal S2 text
// assumes. This is a pre-existing registry/spec tension noted in
// DESIGN.md, not re-litigated here. Asserted at the parser level only:
// going further through Pipeline.Answer() would fall into the
// comparison dispatch branch, which calls *service.Service methods
// requiring a live database this module has no test driver for.
func TestScenarioS2ParserResolvesBothNamedBanks(t *testing.T) {
	parser := specparser.New(nil, nil)
	spec := parser.Parse(context.Background(), "Compara ICOR de INVEX vs Banorte", "", "")
	assert.True(t, spec.ComparisonMode)
	assert.Contains(t, spec.BankNames, "INVEX")
	assert.Contains(t, spec.BankNames, "BANORTE")
	assert.False(t, spec.RequiresClarification)
}

// S2 variant: an actually-unrecognized bank mention must surface as a
// clarification artifact with no SQL executed, through Pipeline.Answer().
func TestScenarioS2GenuinelyUnknownBankRequestsClarification(t *testing.T) {
	reg := registry.Default()
	parser := specparser.New(nil, nil)
	gen := sqlgen.New(reg, nil, nil)
	pipeline := New(reg, nil, parser, nil, gen, nil, nil)

	answer := pipeline.Answer(context.Background(), "Compara ICOR de INVEX vs Intercam", "", "")
	require.Equal(t, types.AnalyticsResultClarification, answer.Result.Type)
	assert.Empty(t, answer.SQL)

	var ids []string
	for _, o := range answer.Result.Options {
		ids = append(ids, o.ID)
	}
	assert.Contains(t, ids, "bank (unsupported)")
}

// S3: "ranking de bancos por activo total" → ranking_mode=true,
// top_n=10 default, SQL groups by bank ordered by descending average
// with a LIMIT 10, and the rendered visualization is institution_ranking
// excluding SISTEMA with an average reference line.
func TestScenarioS3RankingByActivoTotal(t *testing.T) {
	reg := registry.Default()
	parser := specparser.New(nil, nil)
	gen := sqlgen.New(reg, nil, nil)
	builder := viz.New(reg)

	spec := parser.Parse(context.Background(), "ranking de bancos por activo total", "", "")
	require.Equal(t, "ACTIVO_TOTAL", spec.Metric)
	require.True(t, spec.RankingMode)
	require.Zero(t, spec.TopN) // unset by the query itself; the 10 default is applied downstream

	sqlResult := gen.BuildSQLFromSpec(context.Background(), spec, testRagContext(reg))
	require.True(t, sqlResult.Success)
	assert.Contains(t, sqlResult.SQL, "GROUP BY banco_norm")
	assert.Contains(t, sqlResult.SQL, "ORDER BY promedio DESC")
	assert.Contains(t, sqlResult.SQL, "LIMIT 10")

	result := types.AnalyticsResult{
		Type:          types.AnalyticsResultData,
		Visualization: "institution_ranking",
		MetricName:    "Activos Totales",
		Ranking: []types.RankingRow{
			{Bank: "SISTEMA", Average: 50},
			{Bank: "INVEX", Average: 40},
			{Bank: "BANORTE", Average: 60},
		},
	}
	rendered := builder.Build(result, spec, "ranking de bancos por activo total")
	assert.Equal(t, "institution_ranking", rendered.Visualization)

	traces, ok := rendered.PlotlyConfig["data"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, traces, 2) // bar trace + average reference line

	barBanks, ok := traces[0]["y"].([]string)
	require.True(t, ok)
	assert.NotContains(t, barBanks, "SISTEMA")

	assert.Equal(t, "Promedio", traces[1]["name"])
}

// S3 explicit top-N: "top 5" overrides the 10 default end to end
// through the parser and the ranking SQL template.
func TestScenarioS3ExplicitTopNOverridesSQLLimit(t *testing.T) {
	reg := registry.Default()
	parser := specparser.New(nil, nil)
	gen := sqlgen.New(reg, nil, nil)

	spec := parser.Parse(context.Background(), "ranking de bancos por activo total, top 5", "", "")
	require.Equal(t, 5, spec.TopN)

	sqlResult := gen.BuildSQLFromSpec(context.Background(), spec, testRagContext(reg))
	require.True(t, sqlResult.Success)
	assert.Contains(t, sqlResult.SQL, "LIMIT 5")
}

// S4: a semicolon-chained DROP TABLE attempt must fail validation
// with a reason naming DROP, driven through the same sqlgen.Generator
// the Pipeline wires up (its validator is the one C2 invariant this
// scenario exercises).
func TestScenarioS4DropTableInjectionRejected(t *testing.T) {
	// The malicious SQL never originates from our own templates; this
	// exercises the validator layer sqlgen.Generator always routes
	// template/LLM output through (C2's forbidden-keyword closure).
	validator := sqlvalidator.New(nil)
	result := validator.Validate(context.Background(), "SELECT * FROM monthly_kpis; DROP TABLE monthly_kpis")
	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "DROP")
}
