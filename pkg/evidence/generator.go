// Package evidence translates ranked model attributions and raw token scores
// into deduplicated, capped lists of plain-language reasons. It is the only
// package aware of the other analyzers' output shapes, and it fails soft:
// callers always receive a non-empty reason list, with the Degraded flag
// marking when a fallback phrase was substituted for real evidence.
package evidence

import (
	"fmt"
	"sort"
)

// Selection limits and significance bars for the two modes.
const (
	maxStructuralReasons = 5
	maxLexicalReasons    = 3
	contributionFloor    = 0.01
)

// Contribution is one (feature, weight) pair from the attribution service,
// expected in descending weight order.
type Contribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// TokenScore is one message token with the difference between its
// phishing-class and safe-class log-probabilities under the text classifier.
type TokenScore struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// Result distinguishes real evidence from a degraded fallback, so failure is
// observable without an error crossing the component boundary. Reasons is
// never empty.
type Result struct {
	Reasons  []string `json:"reasons"`
	Degraded bool     `json:"degraded"`
}

// FromContributions builds structural-mode evidence for a URL verdict: the
// top contributions above the significance floor, each mapped through the
// feature phrase table with a generic fallback for unknown names.
func FromContributions(contribs []Contribution) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Reasons: []string{fallbackURLDegraded}, Degraded: true}
		}
	}()

	ranked := make([]Contribution, len(contribs))
	copy(ranked, contribs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })

	var reasons []string
	for _, c := range ranked {
		if len(reasons) >= maxStructuralReasons {
			break
		}
		if c.Weight <= contributionFloor {
			continue
		}
		phrase, ok := featurePhrases[c.Feature]
		if !ok {
			phrase = fmt.Sprintf("Suspicious indicator: %s", c.Feature)
		}
		reasons = appendUnique(reasons, phrase)
	}

	if len(reasons) == 0 {
		return Result{Reasons: []string{fallbackURLPattern}, Degraded: true}
	}
	return Result{Reasons: reasons}
}

// FromTokenScores builds lexical-mode evidence for an email verdict: the top
// tokens with a positive phishing-vs-safe log-probability difference, mapped
// through the keyword phrase table with a token-embedding fallback, then
// deduplicated with set semantics.
func FromTokenScores(tokens []TokenScore) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Reasons: []string{fallbackTextDegraded}, Degraded: true}
		}
	}()

	ranked := make([]TokenScore, len(tokens))
	copy(ranked, tokens)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var reasons []string
	count := 0
	for _, t := range ranked {
		if count >= maxLexicalReasons {
			break
		}
		if t.Score <= 0 {
			break
		}
		count++
		phrase, ok := keywordPhrases[t.Token]
		if !ok {
			phrase = fmt.Sprintf("Use of suspicious or manipulative language (e.g. '%s').", t.Token)
		}
		reasons = appendUnique(reasons, phrase)
	}

	if len(reasons) == 0 {
		return Result{Reasons: []string{fallbackTextPattern}, Degraded: true}
	}
	return Result{Reasons: reasons}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
