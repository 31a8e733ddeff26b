// Package match implements the channel-name matching engine: decoration
// extraction, callsign recognition, name normalization, broadcast and premium
// matching, and final name assembly.
package match

import (
	"regexp"
	"strings"
)

// Decorations are the semantically meaningful markers extracted from a raw
// channel name so they can be re-attached after matching. Produced fresh per
// name; never persisted.
type Decorations struct {
	Regional    string   // "East", "West" or ""
	ExtraTags   []string // parenthesized markers, original order, e.g. "(CX)"
	QualityTags []string // bracketed markers, verbatim incl. case, e.g. "[HD]"
}

// Empty reports whether no decoration was found.
func (d Decorations) Empty() bool {
	return d.Regional == "" && len(d.ExtraTags) == 0 && len(d.QualityTags) == 0
}

var (
	regionalRe = regexp.MustCompile(`(?i)\b(east|west)\b`)
	// A 4-letter uppercase token directly before East/West is a
	// callsign-region compound, not a regional feed marker. Known heuristic
	// boundary: other compound forms are not covered.
	callsignCompoundRe = regexp.MustCompile(`\b[A-Z]{4}\s+(East|West)\b`)
	extraTagRe         = regexp.MustCompile(`\(([A-Z0-9]+)\)`)
	bracketTagRe       = regexp.MustCompile(`\[([^\]]+)\]`)
)

// ExtractDecorations pulls the regional indicator, extra parenthesized tags
// and bracketed quality tags out of a raw channel name. The name itself is
// not modified; callers combine this with Normalize to get the residual text.
func ExtractDecorations(name string) Decorations {
	var d Decorations

	if m := regionalRe.FindString(name); m != "" && !callsignCompoundRe.MatchString(name) {
		d.Regional = strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}

	for _, m := range extraTagRe.FindAllStringSubmatch(name, -1) {
		tag := m[1]
		if up := strings.ToUpper(tag); up == "EAST" || up == "WEST" {
			continue
		}
		d.ExtraTags = append(d.ExtraTags, "("+tag+")")
	}

	for _, m := range bracketTagRe.FindAllStringSubmatch(name, -1) {
		d.QualityTags = append(d.QualityTags, "["+m[1]+"]")
	}

	return d
}

// Extract returns the normalized residual of name together with its
// decorations. If the name carries no decorations the residual equals the
// normalized input and the decorations are empty.
func Extract(name string, ignoredTags []string) (string, Decorations) {
	return Normalize(name, ignoredTags), ExtractDecorations(name)
}
