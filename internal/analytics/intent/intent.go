// Package intent implements the supplemental disambiguation layer
// the distilled spec dropped: given a short, possibly ambiguous
// topic phrase, resolve it to a single canonical metric or report
// the candidates that tie. Grounded in intent_service.py's
// IntentService.disambiguate, adapted from its YAML dashboard-section
// index to the metric registry metric registry, since sections.yaml itself is not
// part of the exercised domain.
package intent

import (
	"sort"
	"strings"

	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
)

// commonWords are stripped from both the index and the query before
// keyword matching, mirroring the Python service's stopword discard.
var commonWords = map[string]bool{
	"cuadro": true, "grafica": true, "evolucion": true, "de": true, "del": true, "la": true, "el": true,
}

// Result is the outcome of Disambiguate: either a single resolved
// metric, or a set of tied options the caller should ask the user to
// pick between.
type Result struct {
	IsAmbiguous      bool
	ResolvedMetric   string
	Options          []string
	MissingDimension string
}

// Disambiguator resolves short topic phrases to canonical metrics
// using a keyword index built once over the registry's aliases.
type Disambiguator struct {
	registry   *registry.Registry
	keywordMap map[string][]string // keyword -> canonical metrics containing it
}

// New builds a Disambiguator over reg's metric aliases, defaulting to
// registry.Default() when reg is nil.
func New(reg *registry.Registry) *Disambiguator {
	if reg == nil {
		reg = registry.Default()
	}
	d := &Disambiguator{registry: reg, keywordMap: make(map[string][]string)}
	d.buildIndex()
	return d
}

func (d *Disambiguator) buildIndex() {
	for alias, canonical := range d.registry.TopicAliases() {
		for _, word := range strings.Fields(alias) {
			word = strings.ToLower(word)
			if len(word) < 3 || commonWords[word] {
				continue
			}
			d.keywordMap[word] = appendUnique(d.keywordMap[word], canonical)
		}
	}
}

func appendUnique(list []string, item string) []string {
	for _, v := range list {
		if v == item {
			return list
		}
	}
	return append(list, item)
}

// Disambiguate resolves query to a single canonical metric when the
// keyword intersection across every significant word yields exactly
// one candidate, or when one candidate scores strictly higher than
// every other; otherwise it reports the tied options.
func (d *Disambiguator) Disambiguate(query string) Result {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	if canonical, ok := d.registry.Describe(strings.ToUpper(queryLower)); ok {
		return Result{ResolvedMetric: canonical.Name}
	}

	words := strings.Fields(queryLower)
	var candidates map[string]bool
	first := true
	for _, word := range words {
		if len(word) < 3 || commonWords[word] {
			continue
		}
		wordCandidates := make(map[string]bool)
		for _, c := range d.keywordMap[word] {
			wordCandidates[c] = true
		}
		for kw, metrics := range d.keywordMap {
			if fuzzyClose(word, kw) {
				for _, c := range metrics {
					wordCandidates[c] = true
				}
			}
		}
		if len(wordCandidates) == 0 {
			continue
		}
		if first {
			candidates = wordCandidates
			first = false
		} else {
			candidates = intersect(candidates, wordCandidates)
		}
	}

	if len(candidates) == 0 {
		return Result{
			IsAmbiguous:      true,
			Options:          []string{"CARTERA_TOTAL", "IMOR", "ICOR", "CAPTACION_TOTAL"},
			MissingDimension: "tema desconocido",
		}
	}

	if len(candidates) == 1 {
		for c := range candidates {
			return Result{ResolvedMetric: c}
		}
	}

	scored := scoreCandidates(candidates, words)
	if scored[0].score > scored[1].score {
		return Result{ResolvedMetric: scored[0].name}
	}

	options := make([]string, 0, len(candidates))
	for c := range candidates {
		options = append(options, d.registry.Display(c))
	}
	sort.Strings(options)
	return Result{IsAmbiguous: true, Options: options, MissingDimension: "especificidad"}
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

type scoredCandidate struct {
	name  string
	score float64
}

// scoreCandidates counts how many query words appear in each
// candidate name, with a small length-based tiebreak favoring the
// more generic (shorter) metric name.
func scoreCandidates(candidates map[string]bool, words []string) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))
	for c := range candidates {
		lower := strings.ToLower(strings.ReplaceAll(c, "_", " "))
		score := 0.0
		for _, w := range words {
			if len(w) < 3 {
				continue
			}
			if strings.Contains(lower, w) {
				score++
			}
		}
		score += (100 - float64(len(c))) / 1000.0
		out = append(out, scoredCandidate{name: c, score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// fuzzyClose reports whether word and candidate differ by at most
// one character edit, a cheap stand-in for difflib's ratio-based
// close-match search over short tokens.
func fuzzyClose(word, candidate string) bool {
	if word == candidate {
		return true
	}
	if abs(len(word)-len(candidate)) > 1 {
		return false
	}
	return levenshteinAtMost1(word, candidate)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// levenshteinAtMost1 reports whether the edit distance between a and
// b is 0 or 1, checked directly without building a full DP table
// since only short tokens (metric/topic words) are compared.
func levenshteinAtMost1(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if abs(la-lb) > 1 {
		return false
	}
	i, j, edits := 0, 0, 0
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		switch {
		case la == lb:
			i++
			j++
		case la > lb:
			i++
		default:
			j++
		}
	}
	if i < la || j < lb {
		edits++
	}
	return edits <= 1
}
