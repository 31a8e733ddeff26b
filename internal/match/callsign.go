package match

import (
	"regexp"
	"strings"
)

const callsignPattern = `[KW][A-Z]{2,4}(?:-(?:TV|CD|LP|DT|LD))?`

var (
	tunerPrefixRe   = regexp.MustCompile(`^D\d+-`)
	callsignParenRe = regexp.MustCompile(`(?i)\((` + callsignPattern + `)\)`)
	callsignEndRe   = regexp.MustCompile(`(?i)\b(` + callsignPattern + `)\s*(?:\.[a-z]+)?\s*$`)
	callsignWordRe  = regexp.MustCompile(`(?i)\b(` + callsignPattern + `)\b`)
	callsignSuffixRe = regexp.MustCompile(`-(?:TV|CD|LP|DT|LD)$`)
)

// ExtractCallsign recognizes a US broadcast callsign embedded in a raw
// channel name. Priority order: parenthesized, anchored at the end of the
// string (a file-extension-like tail is tolerated), then anywhere as a whole
// word. A multi-tuner "D<digits>-" prefix is stripped before matching.
// Returns "" when no callsign is present. WEST and EAST satisfy the
// character class but are regional feed markers, never callsigns.
func ExtractCallsign(name string) string {
	name = tunerPrefixRe.ReplaceAllString(name, "")

	if m := callsignParenRe.FindStringSubmatch(name); m != nil {
		return strings.ToUpper(m[1])
	}

	if m := callsignEndRe.FindStringSubmatch(name); m != nil {
		if cs := strings.ToUpper(m[1]); cs != "WEST" && cs != "EAST" {
			return cs
		}
	}

	if m := callsignWordRe.FindStringSubmatch(name); m != nil {
		if cs := strings.ToUpper(m[1]); cs != "WEST" && cs != "EAST" {
			return cs
		}
	}

	return ""
}

// StripCallsignSuffix removes a -TV/-CD/-LP/-DT/-LD suffix for display and
// lookup aliasing. Suffix variants of a callsign denote the same station.
func StripCallsignSuffix(callsign string) string {
	return callsignSuffixRe.ReplaceAllString(callsign, "")
}
