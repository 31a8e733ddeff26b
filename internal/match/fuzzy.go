package match

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/chanmap/chanmap/internal/similarity"
)

// DefaultFuzzyThreshold is the percentage score a general fuzzy match must
// reach to be accepted.
const DefaultFuzzyThreshold = 85

// nearExactRatio guards genuinely distinct but superficially similar names
// from getting only a fuzzy label.
const nearExactRatio = 0.97

// PremiumResult is the outcome of matching one raw name against the premium
// reference corpus. Ref is "" when no stage succeeded.
type PremiumResult struct {
	Ref   string // matched canonical reference name
	Score int    // 0..100
	Type  string // "exact" or "fuzzy (...)"
}

// Matched reports whether any stage produced a match.
func (r PremiumResult) Matched() bool { return r.Ref != "" }

var (
	separatorRe    = regexp.MustCompile(`[\s&\-]+`)
	extraTagAnyRe  = regexp.MustCompile(`\([A-Z0-9]+\)`)
	numberSuffixRe = regexp.MustCompile(`^(.+?)\s*(\d+)\s*(.*)$`)
)

type premiumRef struct {
	name  string // canonical reference name
	lower string // normalized, regional tokens removed, lowercased
	key   string // lower with separators stripped
	// rawKey keeps regional tokens; the numeric-variant stage compares
	// against the reference as written.
	rawKey string
}

// PremiumMatcher fuzzy-matches channel names against a premium reference
// corpus using staged matching: exact separator-stripped key, near-exact
// similarity, numeric-suffix variant, then general fuzzy ratio against a
// configurable threshold. Reference keys are precomputed at construction;
// Match is a pure function of the input name.
type PremiumMatcher struct {
	refs      []premiumRef
	norm      *Normalizer
	sim       similarity.Strategy
	threshold int
}

// NewPremiumMatcher prepares a matcher over the given reference names.
// threshold is a 0-100 percentage; sim must be deterministic and symmetric.
func NewPremiumMatcher(names []string, ignoredTags []string, sim similarity.Strategy, threshold int) *PremiumMatcher {
	norm := NewNormalizer(ignoredTags)
	refs := make([]premiumRef, 0, len(names))
	for _, name := range names {
		normalized := norm.Normalize(name)
		stripped := strings.TrimSpace(whitespaceRe.ReplaceAllString(
			regionalRe.ReplaceAllString(normalized, ""), " "))
		lower := strings.ToLower(stripped)
		refs = append(refs, premiumRef{
			name:   name,
			lower:  lower,
			key:    separatorRe.ReplaceAllString(lower, ""),
			rawKey: separatorRe.ReplaceAllString(strings.ToLower(normalized), ""),
		})
	}
	return &PremiumMatcher{refs: refs, norm: norm, sim: sim, threshold: threshold}
}

// Match runs the staged algorithm for one raw channel name and returns the
// result together with the decorations extracted from the name. Regional
// tokens and extra tags never take part in the comparison; they are
// re-attached by the name builder afterwards.
func (m *PremiumMatcher) Match(name string) (PremiumResult, Decorations) {
	deco := ExtractDecorations(name)

	normalized := m.norm.Normalize(name)
	if normalized == "" {
		return PremiumResult{}, deco
	}

	forMatch := regionalRe.ReplaceAllString(normalized, "")
	forMatch = extraTagAnyRe.ReplaceAllString(forMatch, "")
	forMatch = strings.TrimSpace(whitespaceRe.ReplaceAllString(forMatch, " "))
	if forMatch == "" {
		return PremiumResult{}, deco
	}

	inLower := strings.ToLower(forMatch)
	inKey := separatorRe.ReplaceAllString(inLower, "")

	// Stage A: exact separator-stripped key, then near-exact similarity.
	bestRatio := 0.0
	bestRef := ""
	for _, ref := range m.refs {
		if inKey == ref.key {
			return PremiumResult{Ref: ref.name, Score: 100, Type: "exact"}, deco
		}
		if ratio := m.sim.Ratio(inLower, ref.lower); ratio >= nearExactRatio && ratio > bestRatio {
			bestRatio = ratio
			bestRef = ref.name
		}
	}
	if bestRef != "" {
		return PremiumResult{Ref: bestRef, Score: pct(bestRatio), Type: "exact"}, deco
	}

	// Stage B: numeric-suffix variant ("HBO 2" -> "hbo2").
	if sub := numberSuffixRe.FindStringSubmatch(forMatch); sub != nil {
		combined := separatorRe.ReplaceAllString(strings.ToLower(sub[1]+sub[2]), "")
		for _, ref := range m.refs {
			if combined == ref.rawKey {
				return PremiumResult{Ref: ref.name, Score: 100, Type: "exact"}, deco
			}
		}
	}

	// Stage C: general fuzzy ratio against the threshold.
	bestRatio, bestRef = 0, ""
	for _, ref := range m.refs {
		if ratio := m.sim.Ratio(inLower, ref.lower); ratio > bestRatio {
			bestRatio = ratio
			bestRef = ref.name
		}
	}
	if score := pct(bestRatio); bestRef != "" && score >= m.threshold {
		return PremiumResult{
			Ref:   bestRef,
			Score: score,
			Type:  fmt.Sprintf("fuzzy (%s %.2f)", m.sim.Name(), bestRatio),
		}, deco
	}

	return PremiumResult{}, deco
}

func pct(ratio float64) int {
	return int(math.Round(ratio * 100))
}
