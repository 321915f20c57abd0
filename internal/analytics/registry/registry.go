// Package registry implements the metric registry, the Metric Registry: the
// authoritative mapping from canonical metric identifiers to physical
// warehouse columns, plus the bank-name and metric-topic alias maps
// used by the query-spec parser's deterministic fallback parser.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/saptiva-ai/bankcopilot/internal/errors"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// MetricDescriptor is one whitelisted metric's full metadata.
type MetricDescriptor struct {
	Name            string
	Column          string
	SemanticType    types.SemanticType
	BetterDirection types.BetterDirection
	Formatter       string
	Aliases         []string
}

// Registry is the metric registry metric whitelist, safe for concurrent reads
// after construction. It is built once (see Default) and treated as
// an idempotent, process-wide singleton.
type Registry struct {
	mu         sync.RWMutex
	descriptors map[string]MetricDescriptor
	topicMap    map[string]string // alias phrase (lowercase) -> canonical metric
	bankAliases map[string]string // alias phrase (lowercase) -> canonical bank
	rankingMetrics map[string]bool
}

// ErrUnauthorizedMetric builds the error SafeColumn returns for any
// name outside the whitelist; callers should treat it as fatal to SQL
// synthesis.
var ErrUnauthorizedMetric = errors.NewUnauthorizedMetric

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, built once from the
// built-in banking metric/bank alias tables grounded in
// query_spec_parser.py's METRIC_MAP/BANK_ALIASES.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(builtinDescriptors(), builtinBankAliases())
	})
	return defaultRegistry
}

// New constructs a Registry from an explicit descriptor set and bank
// alias map, primarily for tests or admin-seeded overrides.
func New(descriptors []MetricDescriptor, bankAliases map[string]string) *Registry {
	r := &Registry{
		descriptors:    make(map[string]MetricDescriptor, len(descriptors)),
		topicMap:       make(map[string]string),
		bankAliases:    make(map[string]string, len(bankAliases)),
		rankingMetrics: map[string]bool{
			"ACTIVO_TOTAL": true, "MARKET_SHARE": true,
			"INVERSIONES_FINANCIERAS": true, "CAPTACION_TOTAL": true,
			"CAPITAL_CONTABLE": true, "RESULTADO_NETO": true,
			"ROA_12M": true, "ROE_12M": true,
		},
	}
	for _, d := range descriptors {
		r.descriptors[d.Name] = d
		r.topicMap[strings.ToLower(d.Name)] = d.Name
		for _, alias := range d.Aliases {
			r.topicMap[strings.ToLower(alias)] = d.Name
		}
	}
	for alias, canonical := range bankAliases {
		r.bankAliases[strings.ToLower(alias)] = canonical
	}
	return r
}

// Resolve maps a free-text user phrase to a canonical metric name.
// Strategy, in order: (1) exact topic-map lookup, (2) whole-word
// match against the longest aliases first, (3) longest substring
// match skipping bank tokens, (4) bounded fuzzy match for short
// inputs. Every unknown phrase returns ("", false) and should be
// logged by the caller as a security-adjacent event.
func (r *Registry) Resolve(ctx context.Context, userPhrase string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	phrase := strings.ToLower(strings.TrimSpace(userPhrase))
	if phrase == "" {
		return "", false
	}

	if canonical, ok := r.topicMap[phrase]; ok {
		return canonical, true
	}

	// Longest-alias-first substring match, skipping bank tokens so
	// "invex" never resolves to a metric.
	type candidate = struct {
		alias     string
		canonical string
	}
	var candidates []candidate
	for alias, canonical := range r.topicMap {
		if r.isBankToken(alias) {
			continue
		}
		candidates = append(candidates, candidate{alias, canonical})
	}
	sort.Slice(candidates, func(i, j int) bool { return len(candidates[i].alias) > len(candidates[j].alias) })
	for _, c := range candidates {
		if containsWord(phrase, c.alias) {
			return c.canonical, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(phrase, c.alias) {
			return c.canonical, true
		}
	}

	if len(phrase) < 30 {
		if canonical, ok := r.fuzzyMatch(phrase, candidates); ok {
			return canonical, true
		}
	}

	logger.Warn(ctx, "registry.resolve.unknown_phrase")
	return "", false
}

func (r *Registry) isBankToken(alias string) bool {
	_, ok := r.bankAliases[alias]
	return ok
}

func containsWord(haystack, word string) bool {
	idx := strings.Index(haystack, word)
	if idx < 0 {
		return false
	}
	before := idx == 0 || !isWordByte(haystack[idx-1])
	after := idx+len(word) >= len(haystack) || !isWordByte(haystack[idx+len(word)])
	return before && after
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// fuzzyMatch is a bounded, dependency-free Jaccard-on-trigrams
// similarity match; returns the best candidate at similarity >= 0.6.
func (r *Registry) fuzzyMatch(phrase string, candidates []struct {
	alias     string
	canonical string
}) (string, bool) {
	best := 0.0
	var bestCanonical string
	for _, c := range candidates {
		sim := trigramSimilarity(phrase, c.alias)
		if sim > best {
			best = sim
			bestCanonical = c.canonical
		}
	}
	if best >= 0.6 {
		return bestCanonical, true
	}
	return "", false
}

func trigrams(s string) map[string]bool {
	out := make(map[string]bool)
	if len(s) < 3 {
		out[s] = true
		return out
	}
	for i := 0; i+3 <= len(s); i++ {
		out[s[i:i+3]] = true
	}
	return out
}

func trigramSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ResolveBank maps a free-text bank phrase to its canonical name,
// using the same alias table the query-spec parser consults.
func (r *Registry) ResolveBank(phrase string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.bankAliases[strings.ToLower(strings.TrimSpace(phrase))]
	return canonical, ok
}

// BankAliases returns a copy of the alias table, for the deterministic
// fallback parser to scan the raw query against.
func (r *Registry) BankAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.bankAliases))
	for k, v := range r.bankAliases {
		out[k] = v
	}
	return out
}

// TopicAliases returns a copy of the metric alias table.
func (r *Registry) TopicAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.topicMap))
	for k, v := range r.topicMap {
		out[k] = v
	}
	return out
}

// IsRankingMetric reports whether metric is exempt from the
// missing-time-range confidence penalty because it is always
// evaluated at the latest period.
func (r *Registry) IsRankingMetric(metric string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rankingMetrics[metric]
}

// SafeColumn resolves canonicalName to its physical column, failing
// with UnauthorizedMetric if the name is not in the whitelist.
// Rationale: prevents attribute-injection reaching the query layer.
func (r *Registry) SafeColumn(canonicalName string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[canonicalName]
	if !ok {
		return "", ErrUnauthorizedMetric(canonicalName)
	}
	return d.Column, nil
}

// Describe returns the full descriptor for a canonical metric name.
func (r *Registry) Describe(canonicalName string) (MetricDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[canonicalName]
	return d, ok
}

// Display returns a human-presentable label for a canonical name,
// falling back to the name itself when no descriptor is registered.
func (r *Registry) Display(name string) string {
	if d, ok := r.Describe(name); ok && d.Formatter != "" {
		return d.Formatter
	}
	return name
}

// BetterDirection returns the registered better-direction for name.
func (r *Registry) BetterDirection(name string) types.BetterDirection {
	if d, ok := r.Describe(name); ok {
		return d.BetterDirection
	}
	return types.BetterNeutral
}

// IsRatio reports whether name's semantic type is ratio/percentage.
func (r *Registry) IsRatio(name string) bool {
	d, ok := r.Describe(name)
	if !ok {
		return false
	}
	return d.SemanticType == types.SemanticRatio || d.SemanticType == types.SemanticPercentage
}

// AllColumns returns every physical column in the whitelist, the
// "available_columns" whitelist the RAG context service always populates regardless of
// vector-store availability.
func (r *Registry) AllColumns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cols := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		cols = append(cols, d.Column)
	}
	sort.Strings(cols)
	return cols
}

// PrefixMatchColumn returns the column of a whitelisted metric whose
// canonical name has metric (case-insensitively) as a prefix, used by
// the SQL generator's metric-column resolution fallback. When several
// metrics match, which one is returned is not defined.
func (r *Registry) PrefixMatchColumn(metric string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	metricLower := strings.ToLower(metric)
	for name, d := range r.descriptors {
		if strings.HasPrefix(strings.ToLower(name), metricLower) {
			return d.Column, true
		}
	}
	return "", false
}
