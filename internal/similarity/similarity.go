// Package similarity provides string-similarity strategies for fuzzy
// channel-name matching. Every strategy returns a deterministic, symmetric
// score in [0,1]; 1 means the strings are identical.
package similarity

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/pmezard/go-difflib/difflib"
)

// Strategy scores how alike two strings are on a normalized 0..1 scale.
type Strategy interface {
	Ratio(a, b string) float64
	Name() string
}

// Algorithm names accepted by New.
const (
	AlgorithmBlocks      = "blocks"
	AlgorithmJaroWinkler = "jarowinkler"
)

// New returns the strategy for the given algorithm name.
func New(algorithm string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBlocks:
		return MatchingBlocks{}, nil
	case AlgorithmJaroWinkler:
		return JaroWinkler{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity algorithm %q", algorithm)
	}
}

// MatchingBlocks scores strings by the total length of their longest matching
// blocks relative to the combined length, the classic diff ratio.
type MatchingBlocks struct{}

func (MatchingBlocks) Name() string { return AlgorithmBlocks }

func (MatchingBlocks) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// JaroWinkler scores strings with the Jaro-Winkler metric, which favors
// shared prefixes. Useful for catalogs where names differ in their tails.
type JaroWinkler struct{}

func (JaroWinkler) Name() string { return AlgorithmJaroWinkler }

func (JaroWinkler) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return float64(edlib.JaroWinklerSimilarity(a, b))
}
