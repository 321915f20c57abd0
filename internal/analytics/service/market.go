package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// GetComparativeRatioData builds a two-trace evolution (primary bank
// vs. comparison bank) for a ratio metric such as IMOR or ICOR.
func (s *Service) GetComparativeRatioData(ctx context.Context, metricColumn, primaryBank, comparisonBank string, dateStart, dateEnd *time.Time) types.AnalyticsResult {
	column, err := s.registry.SafeColumn(metricColumn)
	if err != nil {
		return errorResult(fmt.Sprintf("Métrica '%s' no válida", metricColumn))
	}

	query := s.db.WithContext(ctx).Table("monthly_kpis").
		Select(fmt.Sprintf("fecha, banco_norm, (%s * 100) as value", column)).
		Where("banco_norm IN ?", []string{primaryBank, comparisonBank})
	query = applyDateFilter(query, dateStart, dateEnd)

	var rows []monthlyKPIRow
	if err := query.Order("fecha ASC").Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.comparative_ratio.error", "metric", metricColumn, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al comparar %s", metricColumn))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s para comparar", metricColumn))
	}

	dataRows := make([]types.DataRow, len(rows))
	var latestPrimary, latestComparison float64
	for i, r := range rows {
		dataRows[i] = types.DataRow{Bank: r.BancoNorm, Date: r.Fecha.Format("2006-01-02"), Value: r.Value}
		if r.BancoNorm == primaryBank {
			latestPrimary = r.Value
		}
		if r.BancoNorm == comparisonBank {
			latestComparison = r.Value
		}
	}
	spread := latestPrimary - latestComparison

	return types.AnalyticsResult{
		Type:           types.AnalyticsResultData,
		Visualization:  "comparative_line",
		MetricName:     s.registry.Display(metricColumn),
		MetricType:     types.SemanticRatio,
		BankNames:      []string{primaryBank, comparisonBank},
		TimeRangeStart: dataRows[0].Date,
		TimeRangeEnd:   dataRows[len(dataRows)-1].Date,
		Rows:           dataRows,
		SummaryStats: map[string]interface{}{
			"primary_bank":      primaryBank,
			"comparison_bank":   comparisonBank,
			"latest_primary":    latestPrimary,
			"latest_comparison": latestComparison,
			"spread":            spread,
		},
	}
}

// GetMarketShareData computes primaryBank's share of total system
// cartera_total over the trailing `years` years.
func (s *Service) GetMarketShareData(ctx context.Context, primaryBank string, years int) types.AnalyticsResult {
	startDate := time.Now().AddDate(-years, 0, 0)

	var rows []monthlyKPIRow
	err := s.db.WithContext(ctx).Table("monthly_kpis").
		Select("fecha, banco_norm, cartera_total as value").
		Where("fecha >= ?", startDate).
		Order("fecha ASC").
		Scan(&rows).Error
	if err != nil {
		logger.Error(ctx, "analytics.market_share.error", "bank", primaryBank, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al calcular market share de %s", primaryBank))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de market share para %s", primaryBank))
	}

	totalsByMonth := make(map[string]float64)
	bankByMonth := make(map[string]float64)
	var orderedMonths []string
	seenMonths := make(map[string]bool)
	for _, r := range rows {
		month := r.Fecha.Format("2006-01-02")
		if !seenMonths[month] {
			seenMonths[month] = true
			orderedMonths = append(orderedMonths, month)
		}
		totalsByMonth[month] += r.Value
		if r.BancoNorm == primaryBank {
			bankByMonth[month] = r.Value
		}
	}

	var dataRows []types.DataRow
	var sum float64
	for _, month := range orderedMonths {
		total := totalsByMonth[month]
		if total == 0 {
			continue
		}
		share := bankByMonth[month] / total * 100
		dataRows = append(dataRows, types.DataRow{Bank: primaryBank, Date: month, Value: share})
		sum += share
	}
	if len(dataRows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s", primaryBank))
	}

	return types.AnalyticsResult{
		Type:           types.AnalyticsResultData,
		Visualization:  "market_share_evolution",
		MetricName:     fmt.Sprintf("Market Share %s", primaryBank),
		MetricType:     types.SemanticRatio,
		BankNames:      []string{primaryBank},
		TimeRangeStart: dataRows[0].Date,
		TimeRangeEnd:   dataRows[len(dataRows)-1].Date,
		Rows:           dataRows,
		SummaryStats: map[string]interface{}{
			"latest_share": dataRows[len(dataRows)-1].Value,
			"avg_share":    sum / float64(len(dataRows)),
		},
	}
}

// segmentRow is the (date, bank, value) shape metricas_cartera_segmentada
// rows scan into; its metric values already arrive as percentage
// points, unlike monthly_kpis's decimal ratios.
type segmentRow struct {
	Fecha time.Time
	Banco string
	Value float64
}

// GetSegmentEvolution returns one trace per bank for metricColumn
// within segmentCode over the trailing `years` years.
func (s *Service) GetSegmentEvolution(ctx context.Context, segmentCode, metricColumn string, years int, bankFilter string) types.AnalyticsResult {
	startDate := time.Now().AddDate(-years, 0, 0)
	name := segmentName(segmentCode)

	query := s.db.WithContext(ctx).
		Raw(fmt.Sprintf(`SELECT fecha_corte::date as fecha, institucion as banco, %s as value
			FROM metricas_cartera_segmentada
			WHERE segmento_nombre = ? AND fecha_corte::date >= ? AND %s IS NOT NULL`, metricColumn, metricColumn),
			name, startDate)
	if bankFilter != "" {
		query = s.db.WithContext(ctx).
			Raw(fmt.Sprintf(`SELECT fecha_corte::date as fecha, institucion as banco, %s as value
				FROM metricas_cartera_segmentada
				WHERE segmento_nombre = ? AND fecha_corte::date >= ? AND institucion = ? AND %s IS NOT NULL`, metricColumn, metricColumn),
				name, startDate, bankFilter)
	}

	var rows []segmentRow
	if err := query.Order("fecha_corte ASC").Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.segment_evolution.error", "segment", segmentCode, "metric", metricColumn, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al consultar evolución de %s", segmentCode))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s para el segmento %s", metricColumn, segmentCode))
	}

	dataRows := make([]types.DataRow, len(rows))
	banks := make(map[string]bool)
	for i, r := range rows {
		dataRows[i] = types.DataRow{Bank: r.Banco, Date: r.Fecha.Format("2006-01-02"), Value: r.Value}
		banks[r.Banco] = true
	}

	bankNames := make([]string, 0, len(banks))
	for b := range banks {
		bankNames = append(bankNames, b)
	}

	return types.AnalyticsResult{
		Type:           types.AnalyticsResultData,
		Visualization:  "segment_evolution",
		MetricName:     fmt.Sprintf("%s - %s", metricColumn, segmentCode),
		MetricType:     types.SemanticRatio,
		BankNames:      bankNames,
		TimeRangeStart: dataRows[0].Date,
		TimeRangeEnd:   dataRows[len(dataRows)-1].Date,
		Rows:           dataRows,
		Metadata:       map[string]interface{}{"pipeline": "segment_evolution", "data_source": "metricas_cartera_segmentada"},
	}
}

// GetSegmentRanking ranks banks by metricColumn within segmentCode at
// the latest available cut date, ascending (lowest-first, matching
// ratio metrics where lower is better).
func (s *Service) GetSegmentRanking(ctx context.Context, segmentCode, metricColumn string, topN int) types.AnalyticsResult {
	name := segmentName(segmentCode)

	sql := fmt.Sprintf(`WITH latest AS (
			SELECT MAX(fecha_corte) as max_fecha FROM metricas_cartera_segmentada WHERE segmento_nombre = ?
		)
		SELECT institucion as banco, %s as value
		FROM metricas_cartera_segmentada, latest
		WHERE segmento_nombre = ? AND fecha_corte = latest.max_fecha
		  AND %s IS NOT NULL
		  AND institucion NOT ILIKE '%%Sistema%%' AND institucion NOT ILIKE '%%n.a.%%'
		ORDER BY %s ASC
		LIMIT ?`, metricColumn, metricColumn, metricColumn)

	var rows []segmentRow
	if err := s.db.WithContext(ctx).Raw(sql, name, name, topN).Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.segment_ranking.error", "segment", segmentCode, "metric", metricColumn, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al generar ranking de %s", segmentCode))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s para el segmento %s", metricColumn, segmentCode))
	}

	ranking := make([]types.RankingRow, len(rows))
	bankNames := make([]string, len(rows))
	for i, r := range rows {
		ranking[i] = types.RankingRow{Bank: r.Banco, Average: r.Value, Max: r.Value, Min: r.Value, Count: 1}
		bankNames[i] = r.Banco
	}

	return types.AnalyticsResult{
		Type:          types.AnalyticsResultData,
		Visualization: "segment_ranking",
		MetricName:    fmt.Sprintf("%s - %s", metricColumn, segmentCode),
		MetricType:    types.SemanticRatio,
		BankNames:     bankNames,
		Ranking:       ranking,
		Metadata:      map[string]interface{}{"pipeline": "segment_ranking", "data_source": "metricas_cartera_segmentada"},
	}
}

// GetInstitutionRanking ranks all non-SISTEMA institutions by
// metricColumn as of the latest metricas_financieras_ext cut date.
func (s *Service) GetInstitutionRanking(ctx context.Context, metricColumn string, topN int, ascending bool) types.AnalyticsResult {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	isRatio := metricColumn == "imor" || metricColumn == "icor" || metricColumn == "roa_12m" || metricColumn == "roe_12m" || metricColumn == "perdida_esperada"

	sql := fmt.Sprintf(`WITH latest AS (SELECT MAX(fecha_corte) as max_fecha FROM metricas_financieras_ext)
		SELECT i.nombre_corto as banco, mf.%s as value
		FROM metricas_financieras_ext mf, latest
		JOIN instituciones i ON mf.institucion_id = i.id
		WHERE mf.fecha_corte = latest.max_fecha AND i.es_sistema = false
		ORDER BY mf.%s %s
		LIMIT ?`, metricColumn, metricColumn, order)

	var rows []segmentRow
	if err := s.db.WithContext(ctx).Raw(sql, topN).Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.institution_ranking.error", "metric", metricColumn, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al generar ranking por %s", metricColumn))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s", metricColumn))
	}

	ranking := make([]types.RankingRow, len(rows))
	bankNames := make([]string, len(rows))
	for i, r := range rows {
		value := r.Value
		if isRatio {
			value *= 100
		}
		ranking[i] = types.RankingRow{Bank: r.Banco, Average: value, Max: value, Min: value, Count: 1}
		bankNames[i] = r.Banco
	}

	metricType := types.SemanticCurrencyMDP
	if isRatio {
		metricType = types.SemanticRatio
	}

	return types.AnalyticsResult{
		Type:          types.AnalyticsResultData,
		Visualization: "institution_ranking",
		MetricName:    s.registry.Display(metricColumn),
		MetricType:    metricType,
		BankNames:     bankNames,
		Ranking:       ranking,
		SummaryStats:  map[string]interface{}{"leader": ranking[0].Bank, "leader_value": ranking[0].Average},
	}
}

// GetFinancialMetricData ranks institutions by a metric only found
// in metricas_financieras_ext (BE_BM figures: assets, capital, ROA,
// ROE), flagging INVEX's position relative to the system average.
func (s *Service) GetFinancialMetricData(ctx context.Context, metricID string, topN int) types.AnalyticsResult {
	info, ok := financialMetrics[metricID]
	if !ok {
		return errorResult(fmt.Sprintf("Métrica financiera '%s' no reconocida", metricID))
	}

	sql := fmt.Sprintf(`WITH latest AS (SELECT MAX(fecha_corte::date) as max_fecha FROM metricas_financieras_ext)
		SELECT banco_norm as banco, fecha_corte::date as fecha, %s as value
		FROM metricas_financieras_ext, latest
		WHERE fecha_corte::date = latest.max_fecha
		  AND %s IS NOT NULL AND banco_norm IS NOT NULL AND banco_norm NOT ILIKE '%%sistema%%'
		ORDER BY %s DESC
		LIMIT ?`, info.Column, info.Column, info.Column)

	var rows []segmentRow
	if err := s.db.WithContext(ctx).Raw(sql, topN).Scan(&rows).Error; err != nil {
		logger.Error(ctx, "analytics.financial_metric.error", "metric", metricID, "error", err.Error())
		return errorResult(fmt.Sprintf("Error al consultar %s", info.Display))
	}
	if len(rows) == 0 {
		return emptyResult(fmt.Sprintf("No hay datos de %s disponibles", info.Display))
	}

	isRatio := info.Type == types.SemanticRatio
	var sum, maxVal float64
	for _, r := range rows {
		v := r.Value
		if isRatio && v < 1 {
			v *= 100
		}
		sum += v
		if v > maxVal {
			maxVal = v
		}
	}
	avg := sum / float64(len(rows))

	var invexPosition int
	var invexValue float64
	ranking := make([]types.RankingRow, len(rows))
	bankNames := make([]string, len(rows))
	for i, r := range rows {
		v := r.Value
		if isRatio && v < 1 {
			v *= 100
		}
		ranking[i] = types.RankingRow{Bank: r.Banco, Average: v, Max: v, Min: v, Count: 1}
		bankNames[i] = r.Banco
		if strings.EqualFold(r.Banco, "INVEX") {
			invexPosition = i + 1
			invexValue = v
		}
	}

	return types.AnalyticsResult{
		Type:          types.AnalyticsResultData,
		Visualization: "financial_ranking",
		MetricName:    info.Display,
		MetricType:    info.Type,
		BankNames:     bankNames,
		DataAsOf:      rows[0].Fecha.Format("2006-01-02"),
		Ranking:       ranking,
		SummaryStats: map[string]interface{}{
			"average":          avg,
			"invex_position":   invexPosition,
			"invex_value":      invexValue,
			"total_banks":      len(rows),
			"higher_is_better": info.HigherBetter,
		},
	}
}
