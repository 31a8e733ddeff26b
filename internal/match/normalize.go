package match

import (
	"regexp"
	"strings"
)

var (
	usaNetworkRe = regexp.MustCompile(`(?i)\bUSA\s+Network\b`)
	usaTokenRe   = regexp.MustCompile(`(?i)\bUSA\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalizer produces the canonical comparison form of channel names. The
// configured ignore-list is compiled once; construct one per configuration
// and reuse it across calls.
type Normalizer struct {
	ignored *regexp.Regexp
}

// NewNormalizer compiles the ignored-tag literals into a single pattern.
// Each literal is matched in both delimiter styles, so configuring "[HD]"
// also strips "(HD)" and vice versa.
func NewNormalizer(ignoredTags []string) *Normalizer {
	alts := make([]string, 0, len(ignoredTags)*2)
	for _, tag := range ignoredTags {
		inner := strings.TrimSpace(tag)
		inner = strings.TrimPrefix(inner, "[")
		inner = strings.TrimSuffix(inner, "]")
		inner = strings.TrimPrefix(inner, "(")
		inner = strings.TrimSuffix(inner, ")")
		if inner == "" {
			continue
		}
		quoted := regexp.QuoteMeta(inner)
		alts = append(alts, `\[`+quoted+`\]`, `\(`+quoted+`\)`)
	}
	n := &Normalizer{}
	if len(alts) > 0 {
		n.ignored = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	}
	return n
}

// Normalize removes every ignored-tag literal case-insensitively, drops a
// bare USA country token unless it is part of "USA Network", and collapses
// whitespace runs to single spaces.
func (n *Normalizer) Normalize(name string) string {
	if n.ignored != nil {
		name = n.ignored.ReplaceAllString(name, "")
	}

	if !usaNetworkRe.MatchString(name) {
		name = usaTokenRe.ReplaceAllString(name, "")
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(name, " "))
}

// Normalize is a convenience for one-off calls; hot paths should hold a
// Normalizer instead.
func Normalize(name string, ignoredTags []string) string {
	return NewNormalizer(ignoredTags).Normalize(name)
}
