// Package ragcontext implements the RAG context service: retrieval-augmented context for
// SQL generation, pulling metric definitions, schema snippets, and
// worked examples from Qdrant and falling back gracefully to the
// static whitelist when the vector store is unavailable. Grounded in
// nl2sql_context_service.py's Nl2SqlContextService.
package ragcontext

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/models/embedding"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const (
	collectionSchema   = "bankadvisor_schema"
	collectionMetrics  = "bankadvisor_metrics"
	collectionExamples = "bankadvisor_examples"
	collectionQueries  = "bankadvisor_queries"

	learnedBoost = 1.2
	maxExamples  = 3
)

// SearchHit is one scored payload returned by a vector search.
type SearchHit struct {
	Payload map[string]interface{}
	Score   float64
}

// Searcher abstracts the Qdrant query surface this package needs, so
// tests can substitute an in-memory fake without a live collection.
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, scoreThreshold float64, filter map[string]string) ([]SearchHit, error)
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// Service is the RAG context service RAG context retriever.
type Service struct {
	searcher Searcher
	embedder embedding.Embedder
	registry *registry.Registry
	enabled  bool
}

// New constructs a Service. Passing a nil searcher or embedder
// disables RAG retrieval; rag_context_for_spec then always returns
// the static whitelist only, matching the Python fallback behavior.
func New(searcher Searcher, embedder embedding.Embedder, reg *registry.Registry) *Service {
	if reg == nil {
		reg = registry.Default()
	}
	return &Service{
		searcher: searcher,
		embedder: embedder,
		registry: reg,
		enabled:  searcher != nil && embedder != nil,
	}
}

// RagContextForSpec retrieves RAG context for spec, using
// originalQuery (when non-empty) to seed the example search instead
// of a spec-reconstructed phrase.
func (s *Service) RagContextForSpec(ctx context.Context, spec types.QuerySpec, originalQuery string) types.RagContext {
	availableColumns := s.registry.AllColumns()

	if !s.enabled {
		logger.Debug(ctx, "ragcontext.fallback", "reason", "rag_disabled")
		return types.RagContext{AvailableColumns: availableColumns}
	}

	metricQuery := s.buildMetricQuery(spec)
	schemaQuery := fmt.Sprintf("%s monthly_kpis database column", spec.Metric)
	exampleQuery := originalQuery
	if exampleQuery == "" {
		exampleQuery = s.buildExampleQuery(spec)
	}

	metricDefs, err := s.searchMetrics(ctx, metricQuery)
	if err != nil {
		logger.Warn(ctx, "ragcontext.retrieval_failed", "error", err.Error())
		return types.RagContext{AvailableColumns: availableColumns}
	}

	schemaSnippets, err := s.searchSchema(ctx, schemaQuery)
	if err != nil {
		logger.Warn(ctx, "ragcontext.retrieval_failed", "error", err.Error())
		return types.RagContext{AvailableColumns: availableColumns}
	}

	learned := s.searchLearnedQueries(ctx, exampleQuery)
	static, err := s.searchExamples(ctx, exampleQuery)
	if err != nil {
		logger.Warn(ctx, "ragcontext.retrieval_failed", "error", err.Error())
		return types.RagContext{AvailableColumns: availableColumns}
	}

	examples := mergeExamples(learned, static, maxExamples)

	logger.Info(ctx, "ragcontext.retrieved", "metric_defs", len(metricDefs), "schema_snippets", len(schemaSnippets), "examples", len(examples))

	return types.RagContext{
		MetricDefinitions: metricDefs,
		SchemaSnippets:    schemaSnippets,
		ExampleQueries:    examples,
		AvailableColumns:  availableColumns,
	}
}

func (s *Service) buildMetricQuery(spec types.QuerySpec) string {
	parts := []string{spec.Metric}
	parts = append(parts, spec.BankNames...)
	parts = append(parts, "banking metric")
	return strings.Join(parts, " ")
}

func (s *Service) buildExampleQuery(spec types.QuerySpec) string {
	parts := []string{spec.Metric}
	if len(spec.BankNames) > 0 {
		parts = append(parts, "de", strings.Join(spec.BankNames, " y "))
	}
	switch spec.TimeRange.Type {
	case types.TimeRangeLastNMonths:
		parts = append(parts, fmt.Sprintf("últimos %d meses", spec.TimeRange.N))
	case types.TimeRangeYear:
		if len(spec.TimeRange.StartDate) >= 4 {
			parts = append(parts, spec.TimeRange.StartDate[:4])
		}
	case types.TimeRangeBetweenDates:
		parts = append(parts, fmt.Sprintf("desde %s hasta %s", spec.TimeRange.StartDate, spec.TimeRange.EndDate))
	}
	return strings.Join(parts, " ")
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

func (s *Service) search(ctx context.Context, collection, queryText string, topK int, threshold float64, filter map[string]string) ([]SearchHit, error) {
	exists, err := s.searcher.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.Warn(ctx, "ragcontext.collection_not_found", "collection", collection)
		return nil, nil
	}
	vec, err := s.embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.searcher.Search(ctx, collection, vec, topK, threshold, filter)
}

func (s *Service) searchMetrics(ctx context.Context, queryText string) ([]types.MetricDefinition, error) {
	hits, err := s.search(ctx, collectionMetrics, queryText, 3, 0.7, nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.MetricDefinition, 0, len(hits))
	for _, h := range hits {
		out = append(out, types.MetricDefinition{
			MetricName:  stringField(h.Payload, "metric_name"),
			Formula:     stringField(h.Payload, "formula"),
			Description: stringField(h.Payload, "description"),
			Score:       h.Score,
		})
	}
	return out, nil
}

func (s *Service) searchSchema(ctx context.Context, queryText string) ([]types.SchemaSnippet, error) {
	hits, err := s.search(ctx, collectionSchema, queryText, 5, 0.7, nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.SchemaSnippet, 0, len(hits))
	for _, h := range hits {
		out = append(out, types.SchemaSnippet{
			Table:       stringField(h.Payload, "table"),
			Column:      stringField(h.Payload, "column"),
			DataType:    stringField(h.Payload, "data_type"),
			Description: stringField(h.Payload, "description"),
			Score:       h.Score,
		})
	}
	return out, nil
}

func (s *Service) searchExamples(ctx context.Context, queryText string) ([]types.ExampleQuery, error) {
	hits, err := s.search(ctx, collectionExamples, queryText, 3, 0.70, nil)
	if err != nil {
		return nil, err
	}
	return toExampleQueries(hits, types.ExampleStatic), nil
}

// searchLearnedQueries retrieves feedback-mined examples and applies
// the 1.2x score boost so they outrank static examples at merge time.
// Failures here are non-fatal: the learned-query collection is an
// optimization, not a correctness requirement.
func (s *Service) searchLearnedQueries(ctx context.Context, queryText string) []types.ExampleQuery {
	hits, err := s.search(ctx, collectionQueries, queryText, 2, 0.75, map[string]string{"type": "learned_query"})
	if err != nil {
		logger.Warn(ctx, "ragcontext.learned_search_failed", "error", err.Error())
		return nil
	}
	for i := range hits {
		hits[i].Score *= learnedBoost
	}
	return toExampleQueries(hits, types.ExampleLearned)
}

func toExampleQueries(hits []SearchHit, source types.ExampleSource) []types.ExampleQuery {
	out := make([]types.ExampleQuery, 0, len(hits))
	for _, h := range hits {
		out = append(out, types.ExampleQuery{
			NLQuery:     stringField(h.Payload, "nl_query"),
			SQLTemplate: stringField(h.Payload, "sql_template"),
			Source:      source,
			Score:       h.Score,
		})
	}
	return out
}

func mergeExamples(learned, static []types.ExampleQuery, maxTotal int) []types.ExampleQuery {
	all := append(append([]types.ExampleQuery{}, learned...), static...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > maxTotal {
		all = all[:maxTotal]
	}
	return all
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
