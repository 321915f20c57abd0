// Package specparser implements the query-spec parser: converts a free-text banking
// question into a structured QuerySpec, LLM-first with a
// deterministic regex/alias fallback. Grounded 1:1 in
// query_spec_parser.py's QuerySpecParser.
package specparser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const llmConfidenceFloor = 0.6

var (
	lastNMonthsPattern   = regexp.MustCompile(`(?i)(?:^|\s)(?:últimos?|ultimo|ultimos)\s+(\d+)\s+(?:mes|meses)\b`)
	lastNQuartersPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:últimos?|ultimo|ultimos)\s+(\d+)?\s*(?:trimestre|trimestres)\b`)
	yearPattern          = regexp.MustCompile(`(?i)\b(?:año\s+)?(\d{4})\b`)
	dateRangePattern     = regexp.MustCompile(`(?i)\b(?:desde|from)\s+(\d{4}-\d{2}-\d{2})\s+(?:hasta|to|a)\s+(\d{4}-\d{2}-\d{2})\b`)
	topNPattern          = regexp.MustCompile(`(?i)\btop\s+(\d+)\b|\bprimeros?\s+(\d+)\b`)

	// capitalizedWordPattern finds proper-noun-cased tokens (an
	// uppercase letter followed by lowercase), which excludes
	// all-caps metric acronyms (IMOR, ICOR, MDP) that are never bank
	// names, so it only flags plausible bank mentions.
	capitalizedWordPattern = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ][a-zàéíóúñ]+\b`)
	// afterConnectorPattern requires the captured token itself to be
	// proper-noun-cased, so generic nouns like "de bancos" don't get
	// mistaken for an unresolved bank mention.
	afterConnectorPattern = regexp.MustCompile(`\b(?i:vs\.?|versus|contra|de)\s+([A-ZÁÉÍÓÚÑ][\p{L}]*)`)
	rankingKeywords        = []string{"ranking", "posiciona", "posición", "posicion"}
)

// Parser is the query-spec parser deterministic+LLM query-spec parser.
type Parser struct {
	registry *registry.Registry
	llm      chat.Chat
}

// New constructs a Parser. A nil llm disables LLM-first parsing;
// every query then goes straight to the heuristic path, matching the
// Python implementation's llm_client=None behavior.
func New(reg *registry.Registry, llm chat.Chat) *Parser {
	if reg == nil {
		reg = registry.Default()
	}
	return &Parser{registry: reg, llm: llm}
}

// Parse converts userQuery into a QuerySpec, trying the LLM path
// first (when configured) and falling back to heuristics when the
// LLM is unavailable, errors, or returns low confidence.
func (p *Parser) Parse(ctx context.Context, userQuery, intentHint, modeHint string) types.QuerySpec {
	logger.Info(ctx, "specparser.parse", "query", userQuery, "intent_hint", intentHint, "has_llm", p.llm != nil)

	if p.llm != nil {
		spec, err := p.parseWithLLM(ctx, userQuery, intentHint, modeHint)
		if err != nil {
			logger.Warn(ctx, "specparser.llm_failed", "error", err.Error())
		} else if spec.ConfidenceScore >= llmConfidenceFloor {
			logger.Info(ctx, "specparser.llm_success", "confidence", spec.ConfidenceScore)
			return spec
		} else {
			logger.Warn(ctx, "specparser.llm_low_confidence", "confidence", spec.ConfidenceScore)
		}
	}

	logger.Info(ctx, "specparser.using_heuristics")
	return p.parseWithHeuristics(userQuery, intentHint, modeHint)
}

// parseWithHeuristics is the deterministic fallback: longest-alias
// substring metric match, bank-alias scan, regex time-range
// extraction, with confidence penalties for every missing field.
func (p *Parser) parseWithHeuristics(userQuery, intentHint, modeHint string) types.QuerySpec {
	var missing []string
	confidence := 1.0

	metric := p.extractMetric(userQuery, intentHint)
	if metric == "" {
		missing = append(missing, "metric")
		confidence *= 0.5
	}

	bankNames, unresolvedBank := p.extractBanks(userQuery)
	if unresolvedBank {
		missing = append(missing, "bank (unsupported)")
		confidence *= 0.3
	}

	timeRange, found := p.extractTimeRange(userQuery)
	if !found {
		if !p.registry.IsRankingMetric(metric) {
			missing = append(missing, "time_range")
			confidence *= 0.7
		}
		timeRange = types.TimeRange{Type: types.TimeRangeAll}
	}

	comparisonMode := len(bankNames) > 1 || strings.Contains(strings.ToLower(userQuery), "compar")
	rankingMode := matchesAnyKeyword(userQuery, rankingKeywords) || strings.Contains(strings.ToLower(intentHint), "ranking")
	vizType := determineVizType(modeHint, timeRange)

	return types.QuerySpec{
		Metric:                metric,
		BankNames:             bankNames,
		TimeRange:             timeRange,
		Granularity:           types.GranularityMonth,
		VisualizationType:     vizType,
		ComparisonMode:        comparisonMode,
		RankingMode:           rankingMode,
		TopN:                  extractTopN(userQuery),
		RequiresClarification: len(missing) > 0,
		MissingFields:         missing,
		ConfidenceScore:       confidence,
	}
}

func matchesAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func extractTopN(userQuery string) int {
	m := topNPattern.FindStringSubmatch(userQuery)
	if m == nil {
		return 0
	}
	for _, g := range m[1:] {
		if g != "" {
			n, _ := strconv.Atoi(g)
			return n
		}
	}
	return 0
}

// extractMetric prefers intentHint, then scans userQuery for the
// longest matching alias first so "cartera de consumo" wins over the
// bare "cartera" substring.
func (p *Parser) extractMetric(userQuery, intentHint string) string {
	if intentHint != "" {
		if canonical, ok := p.registry.Resolve(context.Background(), intentHint); ok {
			return canonical
		}
	}
	aliases := p.registry.TopicAliases()
	type aliasEntry struct {
		alias     string
		canonical string
	}
	entries := make([]aliasEntry, 0, len(aliases))
	for alias, canonical := range aliases {
		entries = append(entries, aliasEntry{alias, canonical})
	}
	sort.Slice(entries, func(i, j int) bool { return len(entries[i].alias) > len(entries[j].alias) })

	queryLower := strings.ToLower(userQuery)
	for _, e := range entries {
		if strings.Contains(queryLower, e.alias) {
			return e.canonical
		}
	}
	return ""
}

// extractBanks scans for every bank alias present in the query,
// deduplicating canonical names on first sight, and reports whether
// the query also contains a plausible bank-like token — a
// proper-noun-cased word (skipping the sentence-initial word), or a
// token following "vs"/"versus"/"contra"/"de" — that never resolved
// against the alias map. Grounded in spec §4.4 point 2: an unresolved
// bank mention must reduce confidence, not be silently dropped.
func (p *Parser) extractBanks(userQuery string) ([]string, bool) {
	aliases := p.registry.BankAliases()
	queryLower := strings.ToLower(userQuery)

	var found []string
	seen := make(map[string]bool)
	for alias, canonical := range aliases {
		if strings.Contains(queryLower, alias) && !seen[canonical] {
			found = append(found, canonical)
			seen[canonical] = true
		}
	}

	var candidates []string
	if idx := capitalizedWordPattern.FindAllStringIndex(userQuery, -1); idx != nil {
		for _, loc := range idx {
			if loc[0] == 0 {
				continue // sentence-initial capitalization, not a proper noun signal
			}
			candidates = append(candidates, userQuery[loc[0]:loc[1]])
		}
	}
	for _, m := range afterConnectorPattern.FindAllStringSubmatch(userQuery, -1) {
		candidates = append(candidates, m[1])
	}

	unresolvedBank := false
	for _, c := range candidates {
		if aliasTokenKnown(strings.ToLower(c), aliases) {
			continue
		}
		unresolvedBank = true
		break
	}
	return found, unresolvedBank
}

// aliasTokenKnown reports whether token plausibly names a bank
// already present in the alias map, by substring in either direction
// so "banorte" matches the alias "banorte" and "invex" matches
// "banco invex".
func aliasTokenKnown(token string, aliases map[string]string) bool {
	if token == "" {
		return true
	}
	for alias := range aliases {
		if strings.Contains(alias, token) || strings.Contains(token, alias) {
			return true
		}
	}
	return false
}

func (p *Parser) extractTimeRange(userQuery string) (types.TimeRange, bool) {
	if m := lastNMonthsPattern.FindStringSubmatch(userQuery); m != nil {
		n, _ := strconv.Atoi(m[1])
		return types.TimeRange{Type: types.TimeRangeLastNMonths, N: n}, true
	}
	if m := lastNQuartersPattern.FindStringSubmatch(userQuery); m != nil {
		n := 1
		if m[1] != "" {
			n, _ = strconv.Atoi(m[1])
		}
		return types.TimeRange{Type: types.TimeRangeLastNQuarters, N: n}, true
	}
	if m := yearPattern.FindStringSubmatch(userQuery); m != nil {
		year := m[1]
		return types.TimeRange{
			Type:      types.TimeRangeYear,
			StartDate: year + "-01-01",
			EndDate:   year + "-12-31",
		}, true
	}
	if m := dateRangePattern.FindStringSubmatch(userQuery); m != nil {
		return types.TimeRange{Type: types.TimeRangeBetweenDates, StartDate: m[1], EndDate: m[2]}, true
	}
	return types.TimeRange{}, false
}

func determineVizType(modeHint string, tr types.TimeRange) types.VisualizationType {
	if strings.Contains(strings.ToLower(modeHint), "timeline") {
		return types.VisualizationLine
	}
	switch tr.Type {
	case types.TimeRangeLastNMonths, types.TimeRangeLastNQuarters, types.TimeRangeYear, types.TimeRangeBetweenDates:
		return types.VisualizationLine
	default:
		return types.VisualizationBar
	}
}

// llmResponseSchema mirrors the JSON shape the prompt instructs the
// model to emit; unknown/absent fields default sanely.
type llmResponseSchema struct {
	Metric        string   `json:"metric"`
	BankNames     []string `json:"bank_names"`
	TimeRange     struct {
		Type      string `json:"type"`
		N         int    `json:"n"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	} `json:"time_range"`
	Granularity           string   `json:"granularity"`
	VisualizationType     string   `json:"visualization_type"`
	ComparisonMode        bool     `json:"comparison_mode"`
	RankingMode           bool     `json:"ranking_mode"`
	TopN                  int      `json:"top_n"`
	RequiresClarification bool     `json:"requires_clarification"`
	MissingFields         []string `json:"missing_fields"`
	ConfidenceScore       float64  `json:"confidence_score"`
}

func (p *Parser) parseWithLLM(ctx context.Context, userQuery, intentHint, modeHint string) (types.QuerySpec, error) {
	if intentHint == "" {
		intentHint = "no hint"
	}
	if modeHint == "" {
		modeHint = "dashboard"
	}
	prompt := fmt.Sprintf(llmPromptTemplate, userQuery, intentHint, modeHint)

	resp, err := p.llm.Chat(ctx, []chat.Message{
		{Role: "system", Content: "You are a JSON parser. Respond only with valid JSON."},
		{Role: "user", Content: prompt},
	}, &chat.ChatOptions{Temperature: 0, MaxTokens: 500})
	if err != nil {
		return types.QuerySpec{}, fmt.Errorf("llm chat: %w", err)
	}

	content := extractJSONBlock(resp.Content)
	var parsed llmResponseSchema
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return types.QuerySpec{}, fmt.Errorf("llm json decode: %w", err)
	}

	trType := types.TimeRangeType(parsed.TimeRange.Type)
	if trType == "" {
		trType = types.TimeRangeAll
	}
	granularity := types.Granularity(parsed.Granularity)
	if granularity == "" {
		granularity = types.GranularityMonth
	}
	vizType := types.VisualizationType(parsed.VisualizationType)
	if vizType == "" {
		vizType = types.VisualizationLine
	}
	confidence := parsed.ConfidenceScore
	if confidence == 0 {
		confidence = 1.0
	}

	return types.QuerySpec{
		Metric:    parsed.Metric,
		BankNames: parsed.BankNames,
		TimeRange: types.TimeRange{
			Type:      trType,
			N:         parsed.TimeRange.N,
			StartDate: parsed.TimeRange.StartDate,
			EndDate:   parsed.TimeRange.EndDate,
		},
		Granularity:           granularity,
		VisualizationType:     vizType,
		ComparisonMode:        parsed.ComparisonMode,
		RankingMode:           parsed.RankingMode,
		TopN:                  parsed.TopN,
		RequiresClarification: parsed.RequiresClarification,
		MissingFields:         parsed.MissingFields,
		ConfidenceScore:       confidence,
	}, nil
}

// extractJSONBlock strips a ```json ... ``` or ``` ... ``` fence the
// model may wrap its answer in, since most chat models do this by
// habit even when told to respond with raw JSON.
func extractJSONBlock(content string) string {
	content = strings.TrimSpace(content)
	if strings.Contains(content, "```json") {
		parts := strings.SplitN(content, "```json", 2)
		if len(parts) == 2 {
			if end := strings.Index(parts[1], "```"); end >= 0 {
				return strings.TrimSpace(parts[1][:end])
			}
		}
	}
	if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return content
}

const llmPromptTemplate = `Eres un parser de consultas bancarias. Convierte esta consulta de lenguaje natural a JSON estructurado.

Consulta del usuario: %s
Pista de métrica: %s
Modo sugerido: %s

Responde SOLO con JSON válido siguiendo el esquema QuerySpec: metric, bank_names, time_range{type,n,start_date,end_date}, granularity, visualization_type, comparison_mode, ranking_mode, top_n, requires_clarification, missing_fields, confidence_score.

Tipos de rango temporal: last_n_months, last_n_quarters, year, between_dates, all.
Si la consulta es ambigua o menciona métricas/bancos no disponibles, usa requires_clarification=true, confidence_score < 0.6.`
