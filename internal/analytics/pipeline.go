// Package analytics wires the query-spec parser→RAG context service→SQL generator→analytics service→visualization builder chain into a single
// entry point for callers that just want "answer this banking
// question", so the chat pipeline's tool-dispatch plugin does not need to know the
// internal component boundaries. Grounded in bank_advisor_agent.py's
// BankAdvisorAgent.process_query, which strings the same five steps
// together before handing a result back to the chat layer.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/intent"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/ragcontext"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/service"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/sqlgen"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/specparser"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/viz"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// Answer is the full every component from the query-spec parser through the visualization builder outcome: the rendered result plus the
// validated SQL an artifact can cite as its provenance.
type Answer struct {
	Result types.AnalyticsResult
	SQL    string
}

// Pipeline strings together query-spec parsing, RAG context
// retrieval, SQL generation (for audit/artifact purposes), the
// typed analytics query, and chart rendering.
type Pipeline struct {
	registry      *registry.Registry
	disambiguator *intent.Disambiguator
	parser        *specparser.Parser
	ragCtx        *ragcontext.Service
	sqlGen        *sqlgen.Generator
	service       *service.Service
	viz           *viz.Builder
}

// New constructs a Pipeline from its already-built components. A nil
// registry, disambiguator or builder falls back to a registry-default
// instance; a nil ragCtx limits the RAG context to the registry's
// column whitelist and a nil sqlGen skips SQL generation. parser and
// svc are required.
func New(reg *registry.Registry, disambiguator *intent.Disambiguator, parser *specparser.Parser, ragCtx *ragcontext.Service, sqlGen *sqlgen.Generator, svc *service.Service, builder *viz.Builder) *Pipeline {
	if reg == nil {
		reg = registry.Default()
	}
	if disambiguator == nil {
		disambiguator = intent.New(reg)
	}
	if builder == nil {
		builder = viz.New(reg)
	}
	return &Pipeline{
		registry:      reg,
		disambiguator: disambiguator,
		parser:        parser,
		ragCtx:        ragCtx,
		sqlGen:        sqlGen,
		service:       svc,
		viz:           builder,
	}
}

// Answer resolves userQuery end to end. intentHint/modeHint let a
// caller (the orchestrator's deterministic keyword matcher) steer
// the parse when it already knows which tool fired. The topic
// disambiguator is consulted only when the parser finds no metric.
func (p *Pipeline) Answer(ctx context.Context, userQuery, intentHint, modeHint string) Answer {
	spec := p.parser.Parse(ctx, userQuery, intentHint, modeHint)
	if spec.Metric == "" {
		disambig := p.disambiguator.Disambiguate(userQuery)
		if disambig.IsAmbiguous {
			logger.Info(ctx, "analytics.pipeline.ambiguous", "query", userQuery, "options", len(disambig.Options))
			return Answer{Result: clarificationResult(disambig)}
		}
		spec.Metric = disambig.ResolvedMetric
	}
	if spec.RequiresClarification {
		return Answer{Result: types.AnalyticsResult{
			Type:    types.AnalyticsResultClarification,
			Message: "¿Podrías precisar tu consulta?",
			Options: missingFieldOptions(spec.MissingFields),
		}}
	}

	var ragContext types.RagContext
	if p.ragCtx != nil {
		ragContext = p.ragCtx.RagContextForSpec(ctx, spec, userQuery)
	} else {
		ragContext = types.RagContext{AvailableColumns: p.registry.AllColumns()}
	}

	var sql string
	if p.sqlGen != nil {
		sqlResult := p.sqlGen.BuildSQLFromSpec(ctx, spec, ragContext)
		if sqlResult.Success {
			sql = sqlResult.SQL
		} else {
			logger.Warn(ctx, "analytics.pipeline.sql_generation_failed", "code", string(sqlResult.ErrorCode), "message", sqlResult.ErrorMessage)
		}
	}

	result := p.dispatch(ctx, spec)
	result = p.viz.Build(result, spec, userQuery)
	return Answer{Result: result, SQL: sql}
}

// defaultRankingTopN is the ranking template's top-N fallback when
// neither the query nor the QuerySpec names one.
const defaultRankingTopN = 10

// dispatch routes a complete QuerySpec to the analytics service
// method whose data source and output shape actually match the
// query, instead of always falling back to the generic monthly_kpis
// path: BE_BM financial metrics and segment-scoped metrics live in
// their own tables, and bank-level rankings need the richer
// institution_ranking shape (leader stats, SISTEMA excluded).
func (p *Pipeline) dispatch(ctx context.Context, spec types.QuerySpec) types.AnalyticsResult {
	start := timeRangeStart(spec.TimeRange)
	end := timeRangeEnd(spec.TimeRange)
	topN := spec.TopN
	if topN <= 0 {
		topN = defaultRankingTopN
	}

	if segmentCode, column, ok := p.service.SegmentTarget(spec.Metric); ok {
		if spec.RankingMode {
			return p.service.GetSegmentRanking(ctx, segmentCode, column, topN)
		}
		bankFilter := ""
		if len(spec.BankNames) == 1 {
			bankFilter = spec.BankNames[0]
		}
		return p.service.GetSegmentEvolution(ctx, segmentCode, column, yearsFromRange(spec.TimeRange), bankFilter)
	}

	if spec.RankingMode {
		if column, err := p.registry.SafeColumn(spec.Metric); err == nil {
			ascending := p.registry.BetterDirection(spec.Metric) == types.BetterLower
			return p.service.GetInstitutionRanking(ctx, column, topN, ascending)
		}
	}

	if key, ok := p.service.FinancialMetricKey(spec.Metric); ok {
		return p.service.GetFinancialMetricData(ctx, key, topN)
	}

	if spec.Metric == "MARKET_SHARE" && len(spec.BankNames) == 1 {
		return p.service.GetMarketShareData(ctx, spec.BankNames[0], yearsFromRange(spec.TimeRange))
	}

	if spec.ComparisonMode && len(spec.BankNames) == 2 && p.registry.IsRatio(spec.Metric) {
		if column, err := p.registry.SafeColumn(spec.Metric); err == nil {
			return p.service.GetComparativeRatioData(ctx, column, spec.BankNames[0], spec.BankNames[1], start, end)
		}
	}

	return p.service.GetFilteredData(ctx, spec.Metric, spec.BankNames, start, end, intentFromSpec(spec))
}

// yearsFromRange converts a QuerySpec's time range into the trailing
// year count GetMarketShareData/GetSegmentEvolution expect, defaulting
// to 3 years when the range doesn't name an explicit span.
func yearsFromRange(tr types.TimeRange) int {
	switch tr.Type {
	case types.TimeRangeLastNMonths:
		years := (tr.N + 11) / 12
		if years < 1 {
			return 1
		}
		return years
	case types.TimeRangeLastNQuarters:
		years := (tr.N*3 + 11) / 12
		if years < 1 {
			return 1
		}
		return years
	case types.TimeRangeYear, types.TimeRangeBetweenDates:
		if len(tr.StartDate) >= 4 && len(tr.EndDate) >= 4 {
			var startYear, endYear int
			fmt.Sscanf(tr.StartDate[:4], "%d", &startYear)
			fmt.Sscanf(tr.EndDate[:4], "%d", &endYear)
			if endYear >= startYear {
				return endYear - startYear + 1
			}
		}
		return 1
	default:
		return 3
	}
}

func clarificationResult(r intent.Result) types.AnalyticsResult {
	opts := make([]types.ClarificationOption, len(r.Options))
	for i, o := range r.Options {
		opts[i] = types.ClarificationOption{ID: o, Label: o}
	}
	msg := "Tu consulta coincide con varias métricas, ¿cuál te interesa?"
	if r.MissingDimension != "" {
		msg = "Necesito saber " + r.MissingDimension + " para responder."
	}
	return types.AnalyticsResult{Type: types.AnalyticsResultClarification, Message: msg, Options: opts}
}

func missingFieldOptions(fields []string) []types.ClarificationOption {
	opts := make([]types.ClarificationOption, len(fields))
	for i, f := range fields {
		opts[i] = types.ClarificationOption{ID: f, Label: f}
	}
	return opts
}

func intentFromSpec(spec types.QuerySpec) string {
	switch {
	case spec.RankingMode:
		return "ranking"
	case spec.ComparisonMode:
		return "comparison"
	default:
		return "evolution"
	}
}

func timeRangeStart(tr types.TimeRange) *time.Time {
	switch tr.Type {
	case types.TimeRangeLastNMonths:
		t := time.Now().AddDate(0, -tr.N, 0)
		return &t
	case types.TimeRangeLastNQuarters:
		t := time.Now().AddDate(0, -3*tr.N, 0)
		return &t
	case types.TimeRangeYear, types.TimeRangeBetweenDates:
		if t, err := time.Parse("2006-01-02", tr.StartDate); err == nil {
			return &t
		}
	}
	return nil
}

func timeRangeEnd(tr types.TimeRange) *time.Time {
	if tr.Type == types.TimeRangeYear || tr.Type == types.TimeRangeBetweenDates {
		if t, err := time.Parse("2006-01-02", tr.EndDate); err == nil {
			return &t
		}
	}
	return nil
}
