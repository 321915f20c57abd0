package types

// SemanticType classifies how a metric's raw value should be
// interpreted and formatted.
type SemanticType string

const (
	SemanticRatio      SemanticType = "ratio"
	SemanticCurrencyMDP SemanticType = "currency_mdp"
	SemanticPercentage SemanticType = "percentage"
	SemanticCount      SemanticType = "count"
)

// BetterDirection encodes whether a higher or lower value of a metric
// is the favorable one, used by the visualization builder for semantic coloring.
type BetterDirection string

const (
	BetterHigher  BetterDirection = "higher"
	BetterLower   BetterDirection = "lower"
	BetterNeutral BetterDirection = "neutral"
)

// TimeRangeType enumerates the five supported time-range variants.
type TimeRangeType string

const (
	TimeRangeLastNMonths   TimeRangeType = "last_n_months"
	TimeRangeLastNQuarters TimeRangeType = "last_n_quarters"
	TimeRangeYear          TimeRangeType = "year"
	TimeRangeBetweenDates  TimeRangeType = "between_dates"
	TimeRangeAll           TimeRangeType = "all"
)

// TimeRange is the tagged time-window record banking queries carry.
// StartDate and EndDate are ISO "YYYY-MM-DD" strings when set.
type TimeRange struct {
	Type      TimeRangeType `json:"type"`
	N         int           `json:"n,omitempty"`
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
}

// Granularity is the temporal aggregation level requested for a query.
type Granularity string

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// VisualizationType is the preferred chart family carried on a parsed
// QuerySpec, independent of the richer layouts the visualization builder can emit.
type VisualizationType string

const (
	VisualizationLine  VisualizationType = "line"
	VisualizationBar   VisualizationType = "bar"
	VisualizationTable VisualizationType = "table"
)

// QuerySpec is the query-spec parser output: a structured representation of a
// banking analytics question.
type QuerySpec struct {
	Metric               string             `json:"metric"`
	BankNames            []string           `json:"bank_names"`
	TimeRange            TimeRange          `json:"time_range"`
	Granularity          Granularity        `json:"granularity"`
	VisualizationType    VisualizationType  `json:"visualization_type"`
	ComparisonMode       bool               `json:"comparison_mode"`
	RankingMode          bool               `json:"ranking_mode"`
	TopN                 int                `json:"top_n,omitempty"`
	RequiresClarification bool              `json:"requires_clarification"`
	MissingFields        []string           `json:"missing_fields"`
	ConfidenceScore      float64            `json:"confidence_score"`
}

// IsComplete reports whether spec is ready for SQL generation: it
// names a registered metric, needs no clarification, and the parser's
// confidence clears the minimum threshold.
func (s *QuerySpec) IsComplete(registered func(metric string) bool) bool {
	return !s.RequiresClarification && s.Metric != "" && registered(s.Metric) && s.ConfidenceScore >= 0.6
}

// ExampleSource distinguishes exemplars mined from feedback
// ("learned") from the static seed set.
type ExampleSource string

const (
	ExampleLearned ExampleSource = "learned"
	ExampleStatic  ExampleSource = "static"
)

// MetricDefinition is one RAG-retrieved metric descriptor snippet.
type MetricDefinition struct {
	MetricName  string   `json:"metric_name"`
	Formula     string   `json:"formula,omitempty"`
	Columns     []string `json:"columns_required,omitempty"`
	Description string   `json:"description,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

// SchemaSnippet is one RAG-retrieved table/column descriptor.
type SchemaSnippet struct {
	Table       string  `json:"table"`
	Column      string  `json:"column"`
	DataType    string  `json:"data_type,omitempty"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// ExampleQuery is a retrieved natural-language → SQL exemplar.
type ExampleQuery struct {
	NLQuery     string        `json:"nl_query"`
	SQLTemplate string        `json:"sql_template"`
	Source      ExampleSource `json:"source,omitempty"`
	Score       float64       `json:"score,omitempty"`
}

// RagContext is the RAG context service output consumed by the SQL generator.
type RagContext struct {
	MetricDefinitions []MetricDefinition `json:"metric_definitions"`
	SchemaSnippets    []SchemaSnippet    `json:"schema_snippets"`
	ExampleQueries    []ExampleQuery     `json:"example_queries"`
	AvailableColumns  []string           `json:"available_columns"`
}

// HasColumn reports whether columnName (case-insensitive) is present
// in the whitelist carried by this context.
func (r *RagContext) HasColumn(columnName string) bool {
	for _, c := range r.AvailableColumns {
		if equalFold(c, columnName) {
			return true
		}
	}
	return false
}

// GetMetricDefinition returns the definition for metricName, if any
// was retrieved.
func (r *RagContext) GetMetricDefinition(metricName string) *MetricDefinition {
	for i := range r.MetricDefinitions {
		if equalFold(r.MetricDefinitions[i].MetricName, metricName) {
			return &r.MetricDefinitions[i]
		}
	}
	return nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return toUpperASCII(a) == toUpperASCII(b)
	}
	return toUpperASCII(a) == toUpperASCII(b)
}

func toUpperASCII(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

// SQLErrorCode enumerates the SQL generator's failure reasons.
type SQLErrorCode string

const (
	SQLErrorAmbiguousSpec       SQLErrorCode = "ambiguous_spec"
	SQLErrorUnsupportedMetric  SQLErrorCode = "unsupported_metric"
	SQLErrorValidationFailed   SQLErrorCode = "validation_failed"
	SQLErrorLLMValidationFail  SQLErrorCode = "llm_validation_failed"
	SQLErrorGenerationFailed   SQLErrorCode = "generation_failed"
)

// SqlGenerationResult is the SQL generator output.
type SqlGenerationResult struct {
	Success      bool                   `json:"success"`
	SQL          string                 `json:"sql,omitempty"`
	UsedTemplate bool                   `json:"used_template"`
	ErrorCode    SQLErrorCode           `json:"error_code,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ValidationResult is the SQL validator output.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	SanitizedSQL string   `json:"sanitized_sql,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// AnalyticsResultType tags the four shapes an AnalyticsResult can take.
type AnalyticsResultType string

const (
	AnalyticsResultData          AnalyticsResultType = "data"
	AnalyticsResultEmpty         AnalyticsResultType = "empty"
	AnalyticsResultError         AnalyticsResultType = "error"
	AnalyticsResultClarification AnalyticsResultType = "clarification"
)

// ClarificationOption is one choice offered back to the user when a
// query resolves to more than one candidate metric or bank.
type ClarificationOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// DataRow is one row of a time-series or point-value result.
type DataRow struct {
	Bank  string      `json:"bank,omitempty"`
	Date  string      `json:"date,omitempty"`
	Value interface{} `json:"value"`
}

// RankingRow is one row of a ranking result.
type RankingRow struct {
	Bank     string  `json:"bank"`
	Average  float64 `json:"average"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	Count    int     `json:"count"`
}

// AnalyticsResult is the canonical the analytics service output / the visualization builder input.
type AnalyticsResult struct {
	Type         AnalyticsResultType    `json:"type"`
	Visualization string                `json:"visualization,omitempty"`
	MetricName   string                 `json:"metric_name,omitempty"`
	MetricType   SemanticType           `json:"metric_type,omitempty"`
	BankNames    []string               `json:"bank_names,omitempty"`
	TimeRangeStart string               `json:"time_range_start,omitempty"`
	TimeRangeEnd   string               `json:"time_range_end,omitempty"`
	DataAsOf     string                 `json:"data_as_of,omitempty"`
	Rows         []DataRow              `json:"rows,omitempty"`
	Ranking      []RankingRow           `json:"ranking,omitempty"`
	SummaryStats map[string]interface{} `json:"summary_stats,omitempty"`
	PlotlyConfig map[string]interface{} `json:"plotly_config,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Options      []ClarificationOption  `json:"options,omitempty"`
}
