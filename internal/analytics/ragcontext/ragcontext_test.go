package ragcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/models/embedding"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}
func (fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}
func (fakeEmbedder) GetModelName() string { return "fake" }
func (fakeEmbedder) GetDimensions() int   { return 3 }
func (fakeEmbedder) GetModelID() string   { return "fake-model" }
func (f fakeEmbedder) BatchEmbedWithPool(ctx context.Context, model embedding.Embedder, texts []string) ([][]float32, error) {
	return f.BatchEmbed(ctx, texts)
}

type fakeSearcher struct {
	hits map[string][]SearchHit
}

func (f *fakeSearcher) CollectionExists(ctx context.Context, collection string) (bool, error) {
	_, ok := f.hits[collection]
	return ok, nil
}

func (f *fakeSearcher) Search(ctx context.Context, collection string, vector []float32, topK int, scoreThreshold float64, filter map[string]string) ([]SearchHit, error) {
	return f.hits[collection], nil
}

func TestRagContextDisabledFallsBackToWhitelist(t *testing.T) {
	svc := New(nil, nil, registry.Default())
	result := svc.RagContextForSpec(context.Background(), types.QuerySpec{Metric: "IMOR"}, "")
	assert.NotEmpty(t, result.AvailableColumns)
	assert.Empty(t, result.MetricDefinitions)
}

func TestRagContextMergesLearnedBeforeStatic(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]SearchHit{
		collectionMetrics: {{Payload: map[string]interface{}{"metric_name": "IMOR"}, Score: 0.8}},
		collectionSchema:  {{Payload: map[string]interface{}{"table": "monthly_kpis", "column": "imor"}, Score: 0.9}},
		collectionQueries: {{Payload: map[string]interface{}{"nl_query": "imor de invex", "sql_template": "SELECT imor FROM monthly_kpis"}, Score: 0.7}},
		collectionExamples: {{Payload: map[string]interface{}{"nl_query": "imor historico", "sql_template": "SELECT imor FROM monthly_kpis LIMIT 1000"}, Score: 0.72}},
	}}

	svc := New(searcher, fakeEmbedder{}, registry.Default())
	result := svc.RagContextForSpec(context.Background(), types.QuerySpec{Metric: "IMOR", BankNames: []string{"INVEX"}}, "")

	require.Len(t, result.ExampleQueries, 2)
	assert.Equal(t, types.ExampleLearned, result.ExampleQueries[0].Source)
	assert.InDelta(t, 0.84, result.ExampleQueries[0].Score, 0.001)
	require.Len(t, result.MetricDefinitions, 1)
	require.Len(t, result.SchemaSnippets, 1)
}
