// Package viz implements the visualization builder: turns a the analytics service AnalyticsResult into a pure
// JSON Plotly chart spec. No rendering happens here — callers render
// with any Plotly-compatible engine. Grounded in
// visualization_service.py's VisualizationService, generalized from
// its two dashboard modes to the eight supported layouts.
package viz

import "github.com/saptiva-ai/bankcopilot/internal/types"

// Official bank/segment colors, extracted verbatim from the legacy
// style sheet the teacher's Python service hardcodes.
const (
	ColorINVEX   = "#E45756"
	ColorSistema = "#AAB0B3"
	ColorEtapa1  = "#2E8B57"
	ColorEtapa2  = "#FFD700"
	ColorEtapa3  = "#DC143C"

	colorAboveAverage = "#10B981"
	colorBelowAverage = "#6B7280"
	colorAverageLine  = "#F59E0B"
	colorINVEXBorder  = "#FFD700"
)

// bankColor assigns INVEX its dominant red, Sistema its neutral gray,
// and every other institution a semantic color relative to avg,
// direction-aware per betterDir.
func bankColor(bank string, value, avg float64, betterDir types.BetterDirection) string {
	upper := upperASCII(bank)
	if contains(upper, "INVEX") {
		return ColorINVEX
	}
	if contains(upper, "SISTEMA") {
		return ColorSistema
	}
	aboveIsBetter := betterDir != types.BetterLower
	if aboveIsBetter {
		if value > avg {
			return colorAboveAverage
		}
		return colorBelowAverage
	}
	if value < avg {
		return colorAboveAverage
	}
	return colorBelowAverage
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func upperASCII(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
