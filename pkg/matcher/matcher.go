// Package matcher scores free-text problem statements against a curated
// algorithm signature database and produces confidence-ranked
// identifications.
package matcher

import (
	"sort"
	"strings"

	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/observability/metrics"
)

// Per-match scoring weights.
const (
	keywordWeight      = 0.3
	phraseWeight       = 0.2
	multiKeywordBonus  = 0.1
	quickIdentifyFloor = 0.5
)

// MatchResult is a single confidence-ranked identification. Ephemeral;
// produced per request and never persisted.
type MatchResult struct {
	AlgorithmID     string
	Name            string
	Category        string
	Confidence      float64
	MatchedKeywords []string
	MatchedPhrases  []string
}

// PatternMatcher identifies algorithms from problem text. Given identical
// input and an unchanged signature set it is a pure function; ties at
// equal score resolve to the first-seen signature.
type PatternMatcher struct {
	signatures []Signature
}

// NewPatternMatcher builds a matcher over the given signatures, or the
// default database when nil.
func NewPatternMatcher(signatures []Signature) *PatternMatcher {
	if signatures == nil {
		signatures = DefaultSignatures
	}
	return &PatternMatcher{signatures: signatures}
}

// Match returns the highest-scoring candidate at or above minConfidence,
// or nil when nothing qualifies.
func (m *PatternMatcher) Match(text string, minConfidence float64) *MatchResult {
	normalized := normalize(text)

	var best *MatchResult
	for _, sig := range m.signatures {
		score, keywords, phrases := scoreSignature(normalized, sig)
		if score < minConfidence || score <= bestScore(best) {
			continue
		}
		best = &MatchResult{
			AlgorithmID:     sig.ID,
			Name:            sig.Name,
			Category:        sig.Category,
			Confidence:      score,
			MatchedKeywords: keywords,
			MatchedPhrases:  phrases,
		}
	}

	if best != nil {
		logging.Infof("Pattern match: %s (confidence: %.2f)", best.Name, best.Confidence)
		metrics.RecordPatternMatch(best.AlgorithmID)
	} else {
		logging.Debugf("No pattern match for: %s", preview(text))
	}
	return best
}

// MatchTop returns up to n candidates at or above minConfidence, sorted by
// descending confidence. Equal scores keep signature insertion order.
func (m *PatternMatcher) MatchTop(text string, n int, minConfidence float64) []MatchResult {
	normalized := normalize(text)

	var results []MatchResult
	for _, sig := range m.signatures {
		score, keywords, phrases := scoreSignature(normalized, sig)
		if score < minConfidence {
			continue
		}
		results = append(results, MatchResult{
			AlgorithmID:     sig.ID,
			Name:            sig.Name,
			Category:        sig.Category,
			Confidence:      score,
			MatchedKeywords: keywords,
			MatchedPhrases:  phrases,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if len(results) > n {
		results = results[:n]
	}
	return results
}

// QuickIdentify returns just the algorithm identity for fast routing
// decisions, or "" when no candidate clears the floor.
func (m *PatternMatcher) QuickIdentify(text string) string {
	if result := m.Match(text, quickIdentifyFloor); result != nil {
		return result.AlgorithmID
	}
	return ""
}

// CategoryAlgorithms returns the IDs of all signatures in a category.
func (m *PatternMatcher) CategoryAlgorithms(category string) []string {
	var ids []string
	for _, sig := range m.signatures {
		if sig.Category == category {
			ids = append(ids, sig.ID)
		}
	}
	return ids
}

// AlgorithmIDs returns every signature ID in insertion order.
func (m *PatternMatcher) AlgorithmIDs() []string {
	ids := make([]string, len(m.signatures))
	for i, sig := range m.signatures {
		ids[i] = sig.ID
	}
	return ids
}

// scoreSignature computes the weighted score of one signature against
// normalized text: any exclusion zeroes the candidate; otherwise keywords
// and phrases accumulate, capped at 1.0, with a bonus for multiple
// keywords, scaled by the signature weight.
func scoreSignature(text string, sig Signature) (float64, []string, []string) {
	for _, exclude := range sig.Exclude {
		if strings.Contains(text, strings.ToLower(exclude)) {
			return 0, nil, nil
		}
	}

	var matchedKeywords, matchedPhrases []string
	score := 0.0
	for _, keyword := range sig.Keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			matchedKeywords = append(matchedKeywords, keyword)
			score += keywordWeight
		}
	}
	for _, phrase := range sig.Phrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			matchedPhrases = append(matchedPhrases, phrase)
			score += phraseWeight
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	if len(matchedKeywords) >= 2 {
		score += multiKeywordBonus
		if score > 1.0 {
			score = 1.0
		}
	}

	weight := sig.Weight
	if weight == 0 {
		weight = 1.0
	}
	return score * weight, matchedKeywords, matchedPhrases
}

func bestScore(r *MatchResult) float64 {
	if r == nil {
		return 0
	}
	return r.Confidence
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func preview(text string) string {
	if len(text) > 50 {
		return text[:50] + "..."
	}
	return text
}
