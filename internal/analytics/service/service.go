// Package service implements the analytics service: the query layer between validated
// SQL/specs and the Plotly-ready AnalyticsResult that the visualization builder renders.
// Every per-intent method is grounded in analytics_service.py's
// AnalyticsService, adapted from raw asyncpg/SQLAlchemy calls to
// parameterized GORM queries against the same three warehouse
// tables (monthly_kpis, metricas_cartera_segmentada,
// metricas_financieras_ext).
package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// evolutionPromotionThreshold is the row count above which a
// point-value/unknown intent is auto-promoted to an evolution chart,
// ensuring a visualization is produced whenever there's enough data
// to draw one.
const evolutionPromotionThreshold = 3

// Service is the analytics service analytics query layer, safe for concurrent use
// over a shared *gorm.DB.
type Service struct {
	db       *gorm.DB
	registry *registry.Registry
}

// New constructs a Service over db, defaulting to registry.Default()
// when reg is nil.
func New(db *gorm.DB, reg *registry.Registry) *Service {
	if reg == nil {
		reg = registry.Default()
	}
	return &Service{db: db, registry: reg}
}

func errorResult(message string) types.AnalyticsResult {
	return types.AnalyticsResult{Type: types.AnalyticsResultError, Message: message}
}

func emptyResult(message string) types.AnalyticsResult {
	return types.AnalyticsResult{Type: types.AnalyticsResultEmpty, Message: message}
}

// monthlyKPIRow is the generic (bank, date, value) shape every
// monthly_kpis query scans into.
type monthlyKPIRow struct {
	Fecha     time.Time
	BancoNorm string
	Value     float64
}

// GetFilteredData is the analytics service's general-purpose entry point: resolves
// metricID to a safe column, applies bank/date filters, and formats
// the result per intent, auto-promoting point_value to evolution
// when enough rows came back.
func (s *Service) GetFilteredData(ctx context.Context, metricID string, banks []string, dateStart, dateEnd *time.Time, intent string) types.AnalyticsResult {
	column, err := s.registry.SafeColumn(metricID)
	if err != nil {
		logger.Warn(ctx, "analytics.filtered_data.invalid_column", "metric_id", metricID)
		return errorResult(fmt.Sprintf("Métrica '%s' no está autorizada", metricID))
	}

	query := s.db.WithContext(ctx).Table("monthly_kpis").
		Select(fmt.Sprintf("fecha, banco_norm, %s as value", column))
	query = applyBankFilter(query, banks)
	query = applyDateFilter(query, dateStart, dateEnd)

	var rows []monthlyKPIRow
	if err := query.Order("fecha ASC").Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.filtered_data.db_error", "metric_id", metricID, "error", err.Error())
		return errorResult("Error de base de datos. Por favor intente nuevamente.")
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos para %s", s.registry.Display(metricID)))
	}

	metricType := s.metricType(metricID)

	switch intent {
	case "evolution":
		return s.formatEvolution(rows, metricID, metricType)
	case "comparison":
		return s.formatComparison(rows, metricID, metricType)
	case "ranking":
		return s.formatRanking(rows, metricID, metricType)
	default:
		if len(rows) > evolutionPromotionThreshold {
			logger.Debug(ctx, "analytics.auto_evolution", "metric", metricID, "original_intent", intent, "rows", len(rows))
			return s.formatEvolution(rows, metricID, metricType)
		}
		return s.formatPointValue(rows, metricID, metricType)
	}
}

func (s *Service) metricType(metricID string) types.SemanticType {
	if d, ok := s.registry.Describe(metricID); ok {
		return d.SemanticType
	}
	return types.SemanticCount
}

func applyBankFilter(q *gorm.DB, banks []string) *gorm.DB {
	if len(banks) == 0 {
		return q
	}
	return q.Where("banco_norm IN ?", banks)
}

func applyDateFilter(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("fecha >= ?", *start)
	}
	if end != nil {
		q = q.Where("fecha <= ?", *end)
	}
	return q
}

func (s *Service) formatEvolution(rows []monthlyKPIRow, metricID string, metricType types.SemanticType) types.AnalyticsResult {
	dataRows := make([]types.DataRow, len(rows))
	for i, r := range rows {
		dataRows[i] = types.DataRow{Bank: r.BancoNorm, Date: r.Fecha.Format("2006-01-02"), Value: normalizeValue(r.Value, metricType)}
	}
	return types.AnalyticsResult{
		Type:           types.AnalyticsResultData,
		Visualization:  "line_chart",
		MetricName:     s.registry.Display(metricID),
		MetricType:     metricType,
		BankNames:      uniqueBanks(rows),
		TimeRangeStart: dataRows[0].Date,
		TimeRangeEnd:   dataRows[len(dataRows)-1].Date,
		Rows:           dataRows,
	}
}

func (s *Service) formatComparison(rows []monthlyKPIRow, metricID string, metricType types.SemanticType) types.AnalyticsResult {
	result := s.formatEvolution(rows, metricID, metricType)
	result.Visualization = "comparative_line"
	return result
}

func (s *Service) formatRanking(rows []monthlyKPIRow, metricID string, metricType types.SemanticType) types.AnalyticsResult {
	ranking := rankingFromRows(rows, s.registry.BetterDirection(metricID) != types.BetterLower)
	if metricType != types.SemanticRatio {
		// rankingFromRows reports percentage points; every other
		// metric type keeps its stored unit, as in normalizeValue.
		for i := range ranking {
			ranking[i].Average /= 100
			ranking[i].Max /= 100
			ranking[i].Min /= 100
		}
	}
	return types.AnalyticsResult{
		Type:       types.AnalyticsResultData,
		Visualization: "ranking",
		MetricName: s.registry.Display(metricID),
		MetricType: metricType,
		BankNames:  uniqueBanks(rows),
		Ranking:    ranking,
		DataAsOf:   rows[len(rows)-1].Fecha.Format("2006-01-02"),
	}
}

func (s *Service) formatPointValue(rows []monthlyKPIRow, metricID string, metricType types.SemanticType) types.AnalyticsResult {
	last := rows[len(rows)-1]
	return types.AnalyticsResult{
		Type:       types.AnalyticsResultData,
		Visualization: "point_value",
		MetricName: s.registry.Display(metricID),
		MetricType: metricType,
		BankNames:  []string{last.BancoNorm},
		DataAsOf:   last.Fecha.Format("2006-01-02"),
		Rows:       []types.DataRow{{Bank: last.BancoNorm, Date: last.Fecha.Format("2006-01-02"), Value: normalizeValue(last.Value, metricType)}},
	}
}

// normalizeValue converts ratio columns (stored as decimals in
// monthly_kpis) into percentage points for display.
func normalizeValue(v float64, metricType types.SemanticType) float64 {
	if metricType == types.SemanticRatio {
		return v * 100
	}
	return v
}

func uniqueBanks(rows []monthlyKPIRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.BancoNorm] {
			seen[r.BancoNorm] = true
			out = append(out, r.BancoNorm)
		}
	}
	return out
}

func averageByBank(rows []monthlyKPIRow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		sums[r.BancoNorm] += r.Value
		counts[r.BancoNorm]++
	}
	out := make(map[string]float64, len(sums))
	for bank, sum := range sums {
		out[bank] = sum / float64(counts[bank])
	}
	return out
}

// bankStats accumulates the per-bank sum/max/min/count needed to
// render a full ranking row, not just the average.
type bankStats struct {
	sum   float64
	max   float64
	min   float64
	count int
}

func statsByBank(rows []monthlyKPIRow) map[string]*bankStats {
	out := make(map[string]*bankStats)
	for _, r := range rows {
		st, ok := out[r.BancoNorm]
		if !ok {
			st = &bankStats{max: r.Value, min: r.Value}
			out[r.BancoNorm] = st
		}
		st.sum += r.Value
		st.count++
		if r.Value > st.max {
			st.max = r.Value
		}
		if r.Value < st.min {
			st.min = r.Value
		}
	}
	return out
}

// rankingFromRows aggregates rows per bank and sorts by average,
// descending when a higher value is better.
func rankingFromRows(rows []monthlyKPIRow, descending bool) []types.RankingRow {
	stats := statsByBank(rows)
	banks := make([]string, 0, len(stats))
	averages := make(map[string]float64, len(stats))
	for b, st := range stats {
		banks = append(banks, b)
		averages[b] = st.sum / float64(st.count)
	}
	sortBanksByValue(banks, averages, descending)

	out := make([]types.RankingRow, len(banks))
	for i, b := range banks {
		st := stats[b]
		out[i] = types.RankingRow{Bank: b, Average: averages[b] * 100, Max: st.max * 100, Min: st.min * 100, Count: st.count}
	}
	return out
}

func sortBanksByValue(banks []string, values map[string]float64, descending bool) {
	for i := 1; i < len(banks); i++ {
		for j := i; j > 0; j-- {
			swap := values[banks[j]] > values[banks[j-1]]
			if !descending {
				swap = values[banks[j]] < values[banks[j-1]]
			}
			if !swap {
				break
			}
			banks[j], banks[j-1] = banks[j-1], banks[j]
		}
	}
}
