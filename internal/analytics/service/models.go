package service

import (
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// segmentCodeMap translates a user-facing segment code into the
// segment_nombre value stored in metricas_cartera_segmentada.
var segmentCodeMap = map[string]string{
	"AUTOMOTRIZ":          "Credito Automotriz",
	"CONSUMO_AUTOMOTRIZ":  "Credito Automotriz",
	"NOMINA":              "Credito de Nomina",
	"TDC":                 "Tarjeta de Credito",
	"TARJETA":             "Tarjeta de Credito",
	"PERSONALES":          "Prestamos Personales",
	"VIVIENDA":            "Credito a la Vivienda",
	"EMPRESAS":            "Credito a Empresas",
	"CONSUMO":             "Consumo Total",
	"EMPRESARIAL":         "Credito a Empresas",
}

func segmentName(code string) string {
	if name, ok := segmentCodeMap[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// financialMetricInfo describes one metricas_financieras_ext column.
type financialMetricInfo struct {
	Column       string
	Type         types.SemanticType
	Display      string
	HigherBetter bool
}

// financialMetrics is the BE_BM metric whitelist: balance-sheet and
// income-statement figures read from metricas_financieras_ext
// (activo_total is also a monthly_kpis column).
var financialMetrics = map[string]financialMetricInfo{
	"activo_total":            {"activo_total", types.SemanticCurrencyMDP, "Activo Total", true},
	"inversiones_financieras": {"inversiones_financieras", types.SemanticCurrencyMDP, "Inversiones Financieras", true},
	"captacion_total":         {"captacion_total", types.SemanticCurrencyMDP, "Captación Total", true},
	"capital_contable":        {"capital_contable", types.SemanticCurrencyMDP, "Capital Contable", true},
	"resultado_neto":          {"resultado_neto", types.SemanticCurrencyMDP, "Resultado Neto", true},
	"roa_12m":                 {"roa_12m", types.SemanticRatio, "ROA (12m)", true},
	"roe_12m":                 {"roe_12m", types.SemanticRatio, "ROE (12m)", true},
}

// FinancialMetricKey maps a canonical registry metric name (or a
// metric name already expressed as a metricas_financieras_ext column)
// to the financialMetrics key GetFinancialMetricData expects, so the
// pipeline can route BE_BM-only metrics without reaching into this
// package's private whitelist.
func (s *Service) FinancialMetricKey(metric string) (string, bool) {
	key := strings.ToLower(metric)
	if _, ok := financialMetrics[key]; ok {
		return key, true
	}
	return "", false
}

// segmentTarget describes where a segment-scoped canonical metric
// lives in metricas_cartera_segmentada: which segment and which
// column.
type segmentTarget struct {
	SegmentCode string
	Column      string
}

// segmentMetricTargets routes the segment-scoped canonical metrics
// (portfolio balance and IMOR broken out by credit segment) to their
// metricas_cartera_segmentada segment/column pair, so GetSegmentEvolution/
// GetSegmentRanking serve these instead of the coarser monthly_kpis
// aggregate column of the same name.
var segmentMetricTargets = map[string]segmentTarget{
	"CARTERA_AUTOMOTRIZ": {"AUTOMOTRIZ", "saldo_mdp"},
	"CARTERA_NOMINA":     {"NOMINA", "saldo_mdp"},
	"CARTERA_TDC":        {"TDC", "saldo_mdp"},
	"CARTERA_PERSONALES": {"PERSONALES", "saldo_mdp"},
	"IMOR_AUTOMOTRIZ":    {"AUTOMOTRIZ", "imor"},
	"IMOR_NOMINA":        {"NOMINA", "imor"},
	"IMOR_TDC":           {"TDC", "imor"},
}

// SegmentTarget reports the (segment code, column) metricas_cartera_segmentada
// target for metric, when metric is one of the segment-scoped
// canonical names.
func (s *Service) SegmentTarget(metric string) (segmentCode, column string, ok bool) {
	t, ok := segmentMetricTargets[metric]
	return t.SegmentCode, t.Column, ok
}
