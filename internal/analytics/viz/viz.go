package viz

import (
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

var yoyKeywords = []string{"interanual", "yoy", "año contra año", "vs año anterior"}
var variationKeywords = []string{"variación mensual", "variacion mensual", "variación mes a mes"}

// Builder selects and renders one of seven layouts (buildStackedBar,
// the eighth builder, is never selected by Build),
// given a the analytics service AnalyticsResult, the QuerySpec that produced it, and the
// original query text (consulted for YoY/variation keywords the
// structured spec doesn't carry).
type Builder struct {
	registry *registry.Registry
}

// New constructs a Builder, defaulting to registry.Default().
func New(reg *registry.Registry) *Builder {
	if reg == nil {
		reg = registry.Default()
	}
	return &Builder{registry: reg}
}

// Build fills result.PlotlyConfig (and any summary annotations) in
// place and returns the enriched result. A result that is not of
// type "data" passes through untouched.
func (b *Builder) Build(result types.AnalyticsResult, spec types.QuerySpec, queryText string) types.AnalyticsResult {
	if result.Type != types.AnalyticsResultData {
		return result
	}

	layout := b.selectLayout(result, spec, queryText)
	switch layout {
	case "table":
		result.PlotlyConfig = buildTable(result)
	case "yoy":
		result.PlotlyConfig = buildYoY(result)
	case "variation":
		result.PlotlyConfig = buildVariation(result)
	case "single_series":
		result.PlotlyConfig = buildSingleSeries(result)
	case "ranking":
		result.PlotlyConfig = b.buildRanking(result)
	case "comparison":
		result.PlotlyConfig = buildComparison(result)
	default:
		result.PlotlyConfig = buildEvolution(result)
	}
	return result
}

// selectLayout implements the layout-selection trigger table. Order
// matters: explicit hints (table, YoY, variation) take priority over
// the coarser visualization family carried on the result.
func (b *Builder) selectLayout(result types.AnalyticsResult, spec types.QuerySpec, queryText string) string {
	if spec.VisualizationType == types.VisualizationTable {
		return "table"
	}
	lowerQuery := strings.ToLower(queryText)
	if matchesAny(lowerQuery, yoyKeywords) {
		return "yoy"
	}
	if matchesAny(lowerQuery, variationKeywords) || strings.HasSuffix(spec.Metric, "_VARIACION_MM") {
		return "variation"
	}
	if strings.Contains(result.Visualization, "ranking") {
		return "ranking"
	}
	if strings.Contains(result.Visualization, "comparative") || result.Visualization == "comparison" {
		return "comparison"
	}
	if len(result.BankNames) == 1 && result.Visualization != "ranking" {
		return "single_series"
	}
	return "evolution"
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// buildEvolution renders one line trace per bank, INVEX rendered
// thick (width 4) and solid, SISTEMA dotted, every other bank at the
// default width 2. Adds last-value annotations for INVEX and SISTEMA.
func buildEvolution(result types.AnalyticsResult) map[string]interface{} {
	series := groupByBank(result.Rows)
	traces := make([]map[string]interface{}, 0, len(series))
	for _, bank := range bankOrder(series) {
		rows := series[bank]
		width := 2
		dash := ""
		upper := upperASCII(bank)
		if contains(upper, "INVEX") {
			width = 4
		} else if contains(upper, "SISTEMA") {
			dash = "dot"
		}
		line := map[string]interface{}{"color": traceColor(bank), "width": width}
		if dash != "" {
			line["dash"] = dash
		}
		traces = append(traces, map[string]interface{}{
			"type": "scatter", "mode": "lines+markers", "name": bank,
			"x": dates(rows), "y": values(rows), "line": line,
		})
	}

	return map[string]interface{}{
		"data": traces,
		"layout": map[string]interface{}{
			"title":      "Evolución " + result.MetricName,
			"hovermode":  "x unified",
			"yaxis":      map[string]interface{}{"title": unitLabel(result.MetricType)},
			"legend":     map[string]interface{}{"orientation": "h", "y": -0.2},
			"annotations": lastValueAnnotations(series),
		},
	}
}

func buildComparison(result types.AnalyticsResult) map[string]interface{} {
	spec := buildEvolution(result)
	layout := spec["layout"].(map[string]interface{})
	layout["title"] = "Comparación - " + result.MetricName
	return spec
}

// buildRanking renders a horizontal bar chart, excluding SISTEMA from
// the ranked set, semantically colored by better_direction, with an
// average reference line and annotation.
func (b *Builder) buildRanking(result types.AnalyticsResult) map[string]interface{} {
	rows := excludeSistema(result.Ranking)
	if len(rows) == 0 {
		return map[string]interface{}{"data": []interface{}{}, "layout": map[string]interface{}{}}
	}

	banks := make([]string, len(rows))
	vals := make([]float64, len(rows))
	for i, r := range rows {
		banks[i] = r.Bank
		vals[i] = r.Average
	}
	avg := average(vals)
	betterDir := b.registry.BetterDirection(result.MetricName)

	colors := make([]string, len(rows))
	for i, r := range rows {
		colors[i] = bankColor(r.Bank, r.Average, avg, betterDir)
	}

	return map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"type": "bar", "orientation": "h",
				"x": vals, "y": banks,
				"marker": map[string]interface{}{"color": colors},
			},
			{
				"type": "scatter", "mode": "lines",
				"x": []float64{avg, avg}, "y": []string{banks[0], banks[len(banks)-1]},
				"line": map[string]interface{}{"color": colorAverageLine, "width": 3, "dash": "dash"},
				"name": "Promedio",
			},
		},
		"layout": map[string]interface{}{
			"title":       "Ranking - " + result.MetricName,
			"xaxis":       map[string]interface{}{"title": unitLabel(result.MetricType)},
			"annotations": []map[string]interface{}{averageAnnotation(avg)},
		},
	}
}

func buildYoY(result types.AnalyticsResult) map[string]interface{} {
	spec := buildComparison(result)
	layout := spec["layout"].(map[string]interface{})
	layout["title"] = "Interanual - " + result.MetricName
	return spec
}

// buildVariation renders a bar chart with bars colored by sign: green
// for a non-negative change, red for a negative one. The metric's
// better_direction is not consulted.
func buildVariation(result types.AnalyticsResult) map[string]interface{} {
	rows := result.Rows
	colors := make([]string, len(rows))
	vals := make([]float64, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		v, _ := r.Value.(float64)
		vals[i] = v
		labels[i] = r.Date
		if v >= 0 {
			colors[i] = colorAboveAverage
		} else {
			colors[i] = ColorEtapa3
		}
	}
	return map[string]interface{}{
		"data": []map[string]interface{}{{
			"type": "bar", "x": labels, "y": vals,
			"marker": map[string]interface{}{"color": colors},
		}},
		"layout": map[string]interface{}{"title": "Variación mensual - " + result.MetricName},
	}
}

// buildStackedBar renders a multi-metric distribution (e.g. IFRS9
// deterioration stages) as a 100%-stacked bar, one trace per field.
func buildStackedBar(fieldRows map[string][]types.DataRow, stageColors []string) map[string]interface{} {
	traces := make([]map[string]interface{}, 0, len(fieldRows))
	i := 0
	for field, rows := range fieldRows {
		color := ""
		if i < len(stageColors) {
			color = stageColors[i]
		}
		trace := map[string]interface{}{
			"type": "bar", "name": field,
			"x": dates(rows), "y": values(rows),
		}
		if color != "" {
			trace["marker"] = map[string]interface{}{"color": color}
		}
		traces = append(traces, trace)
		i++
	}
	return map[string]interface{}{
		"data":   traces,
		"layout": map[string]interface{}{"barmode": "stack"},
	}
}

// buildSingleSeries renders the lone trace of a result that names
// exactly one bank, INVEX thickened to width 4.
func buildSingleSeries(result types.AnalyticsResult) map[string]interface{} {
	bank := ""
	if len(result.BankNames) > 0 {
		bank = result.BankNames[0]
	}
	width := 2
	if contains(upperASCII(bank), "INVEX") {
		width = 4
	}
	return map[string]interface{}{
		"data": []map[string]interface{}{{
			"type": "scatter", "mode": "lines+markers", "name": bank,
			"x": dates(result.Rows), "y": values(result.Rows),
			"line": map[string]interface{}{"color": traceColor(bank), "width": width},
		}},
		"layout": map[string]interface{}{"title": result.MetricName},
	}
}

// buildTable renders a plain data table, no chart semantics.
func buildTable(result types.AnalyticsResult) map[string]interface{} {
	return map[string]interface{}{
		"data": []map[string]interface{}{{
			"type": "table",
			"header": map[string]interface{}{"values": []string{"Banco", "Fecha", result.MetricName}},
			"cells":  map[string]interface{}{"values": tableColumns(result.Rows)},
		}},
		"layout": map[string]interface{}{"title": result.MetricName},
	}
}

func tableColumns(rows []types.DataRow) [][]interface{} {
	banks := make([]interface{}, len(rows))
	dates := make([]interface{}, len(rows))
	vals := make([]interface{}, len(rows))
	for i, r := range rows {
		banks[i] = r.Bank
		dates[i] = r.Date
		vals[i] = r.Value
	}
	return [][]interface{}{banks, dates, vals}
}

func groupByBank(rows []types.DataRow) map[string][]types.DataRow {
	out := make(map[string][]types.DataRow)
	for _, r := range rows {
		out[r.Bank] = append(out[r.Bank], r)
	}
	return out
}

func bankOrder(series map[string][]types.DataRow) []string {
	banks := make([]string, 0, len(series))
	for b := range series {
		banks = append(banks, b)
	}
	return banks
}

func traceColor(bank string) string {
	upper := upperASCII(bank)
	if contains(upper, "INVEX") {
		return ColorINVEX
	}
	if contains(upper, "SISTEMA") {
		return ColorSistema
	}
	return colorAboveAverage
}

func excludeSistema(rows []types.RankingRow) []types.RankingRow {
	out := make([]types.RankingRow, 0, len(rows))
	for _, r := range rows {
		if !contains(upperASCII(r.Bank), "SISTEMA") {
			out = append(out, r)
		}
	}
	return out
}

func dates(rows []types.DataRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}

func values(rows []types.DataRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		if v, ok := r.Value.(float64); ok {
			out[i] = v
		}
	}
	return out
}

func unitLabel(metricType types.SemanticType) string {
	if metricType == types.SemanticRatio {
		return "%"
	}
	return "MDP"
}

func lastValueAnnotations(series map[string][]types.DataRow) []map[string]interface{} {
	var out []map[string]interface{}
	for _, bank := range []string{"INVEX", "SISTEMA"} {
		for b, rows := range series {
			if upperASCII(b) != bank || len(rows) == 0 {
				continue
			}
			last := rows[len(rows)-1]
			out = append(out, map[string]interface{}{
				"x": last.Date, "y": last.Value, "text": b, "showarrow": true,
			})
		}
	}
	return out
}

func averageAnnotation(avg float64) map[string]interface{} {
	return map[string]interface{}{
		"x": avg, "y": 1.05, "xref": "x", "yref": "paper",
		"text": "Promedio", "showarrow": false,
		"font": map[string]interface{}{"size": 10, "color": colorAverageLine},
	}
}
