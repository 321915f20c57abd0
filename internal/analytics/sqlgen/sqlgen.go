// Package sqlgen implements the SQL generator: turns a complete QuerySpec plus its
// RagContext into validated SQL against the monthly_kpis warehouse.
// Template-based generation is tried first (ranking, comparison,
// timeseries, aggregate, in that priority order); an LLM prompt is
// the fallback for shapes no template covers. Every path, template or
// LLM, is validated through sqlvalidator before a result is returned.
// Grounded 1:1 in sql_generation_service.py's SqlGenerationService.
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlvalidator"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// maxLimit caps every template's row count, mirroring the Python
// service's security ceiling.
const maxLimit = 1000

const defaultTopN = 10

var templatesTried = []string{"metric_timeseries", "metric_comparison", "metric_aggregate", "metric_ranking"}

// SQLNarrator asks an LLM to produce SQL for a query shape no
// template matches. Kept separate from chat.Chat because the prompt
// needs JSON-shaped context (metric definitions, schema snippets,
// example queries) rather than a plain chat turn.
type SQLNarrator interface {
	GenerateSQL(ctx context.Context, spec types.QuerySpec, ragCtx types.RagContext, metricColumn string) (string, error)
}

// llmNarrator adapts a chat.Chat backend into an SQLNarrator by
// wrapping the RAG context into a single prompt.
type llmNarrator struct {
	llm chat.Chat
}

// NewLLMNarrator builds an SQLNarrator backed by any chat.Chat
// implementation (such as the OpenAI-compatible chat.OpenAIChat).
func NewLLMNarrator(llm chat.Chat) SQLNarrator {
	if llm == nil {
		return nil
	}
	return &llmNarrator{llm: llm}
}

func (n *llmNarrator) GenerateSQL(ctx context.Context, spec types.QuerySpec, ragCtx types.RagContext, metricColumn string) (string, error) {
	var examples strings.Builder
	for _, ex := range ragCtx.ExampleQueries {
		fmt.Fprintf(&examples, "-- %s\n%s\n\n", ex.NLQuery, ex.SQLTemplate)
	}
	prompt := fmt.Sprintf(sqlPromptTemplate,
		spec.Metric, metricColumn, strings.Join(spec.BankNames, ", "),
		spec.TimeRange.Type, strings.Join(ragCtx.AvailableColumns, ", "), examples.String())

	resp, err := n.llm.Chat(ctx, []chat.Message{
		{Role: "system", Content: "You are a PostgreSQL query generator. Respond only with a single SELECT statement, no markdown fences."},
		{Role: "user", Content: prompt},
	}, &chat.ChatOptions{Temperature: 0, MaxTokens: 400})
	if err != nil {
		return "", fmt.Errorf("llm sql generation: %w", err)
	}
	return stripFence(resp.Content), nil
}

const sqlPromptTemplate = `Genera una consulta SQL PostgreSQL de solo lectura contra la tabla monthly_kpis.

Métrica solicitada: %s (columna: %s)
Bancos: %s
Rango temporal: %s
Columnas disponibles: %s

Ejemplos relacionados:
%s

Reglas: solo SELECT, sin punto y coma final, sin CTEs ni subconsultas, incluye LIMIT.`

func stripFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```sql")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// Generator is the SQL generator SQL generation service: stateless and safe for
// concurrent use, like its Python counterpart.
type Generator struct {
	registry    *registry.Registry
	validator   *sqlvalidator.Validator
	narrator    SQLNarrator
	defaultTopN int
}

// New constructs a Generator. A nil narrator disables the LLM
// fallback path, matching llm_client=None in the Python service.
func New(reg *registry.Registry, validator *sqlvalidator.Validator, narrator SQLNarrator) *Generator {
	if reg == nil {
		reg = registry.Default()
	}
	if validator == nil {
		validator = sqlvalidator.New(nil)
	}
	return &Generator{registry: reg, validator: validator, narrator: narrator, defaultTopN: defaultTopN}
}

// WithDefaultTopN overrides the ranking template's top-N fallback,
// used when neither the query nor the QuerySpec names one. Optional:
// a Generator with none set keeps using the built-in default.
func (g *Generator) WithDefaultTopN(n int) *Generator {
	if n > 0 {
		g.defaultTopN = n
	}
	return g
}

// BuildSQLFromSpec generates SQL from spec and ctx: template match
// first, LLM fallback second, validation always last.
func (g *Generator) BuildSQLFromSpec(ctx context.Context, spec types.QuerySpec, ragCtx types.RagContext) types.SqlGenerationResult {
	logger.Info(ctx, "sqlgen.start", "metric", spec.Metric, "banks", spec.BankNames, "time_range_type", spec.TimeRange.Type)

	if spec.RequiresClarification || spec.Metric == "" || spec.ConfidenceScore < 0.6 {
		return types.SqlGenerationResult{
			Success:      false,
			ErrorCode:    types.SQLErrorAmbiguousSpec,
			ErrorMessage: fmt.Sprintf("QuerySpec is incomplete. Missing: %s", strings.Join(spec.MissingFields, ", ")),
			Metadata: map[string]interface{}{
				"missing_fields":   spec.MissingFields,
				"confidence_score": spec.ConfidenceScore,
			},
		}
	}

	metricColumn := g.resolveMetricColumn(spec.Metric, ragCtx)
	if metricColumn == "" {
		available := ragCtx.AvailableColumns
		if len(available) > 10 {
			available = available[:10]
		}
		logger.Error(ctx, "sqlgen.unsupported_metric", "metric", spec.Metric)
		return types.SqlGenerationResult{
			Success:      false,
			ErrorCode:    types.SQLErrorUnsupportedMetric,
			ErrorMessage: fmt.Sprintf("Metric '%s' is not supported or column doesn't exist", spec.Metric),
			Metadata:     map[string]interface{}{"available_metrics": available},
		}
	}

	if result := g.tryTemplate(ctx, spec, metricColumn); result != nil {
		logger.Info(ctx, "sqlgen.template_success", "template", result.Metadata["template"], "metric", spec.Metric)
		return *result
	}

	if g.narrator != nil {
		if result := g.tryLLM(ctx, spec, ragCtx, metricColumn); result != nil {
			return *result
		}
	} else {
		logger.Warn(ctx, "sqlgen.llm_unavailable", "metric", spec.Metric)
	}

	logger.Error(ctx, "sqlgen.failed", "metric", spec.Metric, "reason", "no template matched and LLM unavailable or failed")
	return types.SqlGenerationResult{
		Success:      false,
		ErrorCode:    types.SQLErrorGenerationFailed,
		ErrorMessage: "Could not generate SQL: no template matched and LLM unavailable",
		Metadata: map[string]interface{}{
			"metric":          spec.Metric,
			"templates_tried": templatesTried,
		},
	}
}

// resolveMetricColumn maps a canonical metric name to its physical
// column: direct lowercase match, then prefix match, then RAG
// metric-definition preferred columns, mirroring the three-step
// strategy in the Python service, and finally the registry's own
// whitelisted column for the metric.
func (g *Generator) resolveMetricColumn(metric string, ragCtx types.RagContext) string {
	lower := strings.ToLower(metric)
	if ragCtx.HasColumn(lower) {
		return lower
	}
	for _, col := range ragCtx.AvailableColumns {
		if strings.HasPrefix(col, lower) {
			return col
		}
	}
	if def := ragCtx.GetMetricDefinition(metric); def != nil && len(def.Columns) > 0 {
		preferred := def.Columns[0]
		if ragCtx.HasColumn(preferred) {
			return preferred
		}
	}
	if col, ok := g.registry.SafeColumn(metric); ok == nil {
		return col
	}
	return ""
}

// tryTemplate dispatches to the template matching spec's shape, in
// priority order: ranking, comparison, timeseries, aggregate.
func (g *Generator) tryTemplate(ctx context.Context, spec types.QuerySpec, metricColumn string) *types.SqlGenerationResult {
	if spec.RankingMode {
		r := g.generateRanking(ctx, spec, metricColumn)
		return &r
	}
	if spec.ComparisonMode && len(spec.BankNames) > 1 {
		r := g.generateComparison(ctx, spec, metricColumn)
		return &r
	}
	switch spec.TimeRange.Type {
	case types.TimeRangeLastNMonths, types.TimeRangeLastNQuarters, types.TimeRangeYear, types.TimeRangeBetweenDates:
		r := g.generateTimeseries(ctx, spec, metricColumn)
		return &r
	}
	if spec.TimeRange.Type == types.TimeRangeAll && !spec.ComparisonMode {
		r := g.generateAggregate(ctx, spec, metricColumn)
		return &r
	}
	logger.Debug(ctx, "sqlgen.no_template_match", "metric", spec.Metric, "time_range_type", spec.TimeRange.Type, "comparison_mode", spec.ComparisonMode)
	return nil
}

func bankFilter(banks []string) string {
	if len(banks) == 0 {
		return ""
	}
	if len(banks) == 1 {
		return fmt.Sprintf("banco_norm = '%s'", banks[0])
	}
	return fmt.Sprintf("banco_norm IN ('%s')", strings.Join(banks, "', '"))
}

// buildTimeFilter renders a WHERE fragment for every non-"all" time
// range type, matching the Python service's CURRENT_DATE arithmetic.
func buildTimeFilter(tr types.TimeRange) string {
	switch tr.Type {
	case types.TimeRangeLastNMonths:
		return fmt.Sprintf("fecha >= (CURRENT_DATE - INTERVAL '%d months')", tr.N)
	case types.TimeRangeLastNQuarters:
		return fmt.Sprintf("fecha >= (CURRENT_DATE - INTERVAL '%d months')", tr.N*3)
	case types.TimeRangeYear, types.TimeRangeBetweenDates:
		return fmt.Sprintf("fecha >= '%s' AND fecha <= '%s'", tr.StartDate, tr.EndDate)
	default:
		return ""
	}
}

func whereOrDefault(clauses []string) string {
	if len(clauses) == 0 {
		return "1=1"
	}
	return strings.Join(clauses, " AND ")
}

func (g *Generator) generateTimeseries(ctx context.Context, spec types.QuerySpec, metricColumn string) types.SqlGenerationResult {
	var where []string
	if bf := bankFilter(spec.BankNames); bf != "" {
		where = append(where, bf)
	}
	if tf := buildTimeFilter(spec.TimeRange); tf != "" {
		where = append(where, tf)
	}

	sql := fmt.Sprintf(
		"SELECT banco_norm, fecha, %s\nFROM monthly_kpis\nWHERE %s\nORDER BY fecha ASC\nLIMIT %d",
		metricColumn, whereOrDefault(where), maxLimit)

	return g.validateTemplate(ctx, sql, "metric_timeseries", map[string]interface{}{
		"metric_column":   metricColumn,
		"time_range_type": spec.TimeRange.Type,
	})
}

func (g *Generator) generateComparison(ctx context.Context, spec types.QuerySpec, metricColumn string) types.SqlGenerationResult {
	where := []string{bankFilter(spec.BankNames)}
	if tf := buildTimeFilter(spec.TimeRange); tf != "" {
		where = append(where, tf)
	}

	sql := fmt.Sprintf(
		"SELECT fecha, banco_norm, %s\nFROM monthly_kpis\nWHERE %s\nORDER BY fecha ASC, banco_norm\nLIMIT %d",
		metricColumn, whereOrDefault(where), maxLimit)

	return g.validateTemplate(ctx, sql, "metric_comparison", map[string]interface{}{
		"metric_column": metricColumn,
		"banks":         spec.BankNames,
	})
}

func (g *Generator) generateAggregate(ctx context.Context, spec types.QuerySpec, metricColumn string) types.SqlGenerationResult {
	var where []string
	if bf := bankFilter(spec.BankNames); bf != "" {
		where = append(where, bf)
	}

	sql := fmt.Sprintf(
		"SELECT AVG(%s) as promedio,\n       MIN(%s) as minimo,\n       MAX(%s) as maximo,\n       COUNT(*) as meses\nFROM monthly_kpis\nWHERE %s",
		metricColumn, metricColumn, metricColumn, whereOrDefault(where))

	return g.validateTemplate(ctx, sql, "metric_aggregate", map[string]interface{}{
		"metric_column": metricColumn,
	})
}

func (g *Generator) generateRanking(ctx context.Context, spec types.QuerySpec, metricColumn string) types.SqlGenerationResult {
	topN := spec.TopN
	if topN <= 0 {
		topN = g.defaultTopN
	}
	if topN > maxLimit {
		topN = maxLimit
	}

	var where []string
	if tf := buildTimeFilter(spec.TimeRange); tf != "" {
		where = append(where, tf)
	}
	where = append(where, fmt.Sprintf("%s IS NOT NULL", metricColumn))

	sql := fmt.Sprintf(
		"SELECT banco_norm,\n       AVG(%s) as promedio,\n       MAX(%s) as maximo,\n       MIN(%s) as minimo,\n       COUNT(*) as meses\nFROM monthly_kpis\nWHERE %s\nGROUP BY banco_norm\nORDER BY promedio DESC\nLIMIT %d",
		metricColumn, metricColumn, metricColumn, whereOrDefault(where), topN)

	return g.validateTemplate(ctx, sql, "metric_ranking", map[string]interface{}{
		"metric_column": metricColumn,
		"top_n":         topN,
	})
}

func (g *Generator) validateTemplate(ctx context.Context, sql, template string, metadata map[string]interface{}) types.SqlGenerationResult {
	validation := g.validator.Validate(ctx, sql)
	if !validation.Valid {
		logger.Error(ctx, "sqlgen.validation_failed", "template", template, "error", validation.ErrorMessage)
		return types.SqlGenerationResult{
			Success:      false,
			ErrorCode:    types.SQLErrorValidationFailed,
			ErrorMessage: validation.ErrorMessage,
			Metadata:     map[string]interface{}{"template": template},
		}
	}

	finalSQL := validation.SanitizedSQL
	if finalSQL == "" {
		finalSQL = sql
	}
	metadata["template"] = template
	return types.SqlGenerationResult{Success: true, SQL: finalSQL, UsedTemplate: true, Metadata: metadata}
}

func (g *Generator) tryLLM(ctx context.Context, spec types.QuerySpec, ragCtx types.RagContext, metricColumn string) *types.SqlGenerationResult {
	logger.Info(ctx, "sqlgen.llm_calling", "metric", spec.Metric)

	sql, err := g.narrator.GenerateSQL(ctx, spec, ragCtx, metricColumn)
	if err != nil {
		logger.Error(ctx, "sqlgen.llm_error", "metric", spec.Metric, "error", err.Error())
		return nil
	}
	if sql == "" {
		logger.Warn(ctx, "sqlgen.llm_no_output", "metric", spec.Metric)
		return nil
	}

	validation := g.validator.Validate(ctx, sql)
	if !validation.Valid {
		preview := sql
		if len(preview) > 200 {
			preview = preview[:200]
		}
		logger.Warn(ctx, "sqlgen.llm_validation_failed", "metric", spec.Metric, "error", validation.ErrorMessage)
		return &types.SqlGenerationResult{
			Success:      false,
			ErrorCode:    types.SQLErrorLLMValidationFail,
			ErrorMessage: validation.ErrorMessage,
			Metadata:     map[string]interface{}{"llm_generated": preview},
		}
	}

	finalSQL := validation.SanitizedSQL
	if finalSQL == "" {
		finalSQL = sql
	}
	logger.Info(ctx, "sqlgen.llm_success", "metric", spec.Metric, "sql_length", len(finalSQL))
	return &types.SqlGenerationResult{
		Success:      true,
		SQL:          finalSQL,
		UsedTemplate: false,
		Metadata:     map[string]interface{}{"sql_length": len(finalSQL)},
	}
}
