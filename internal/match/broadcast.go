package match

import (
	"regexp"
	"strings"

	"github.com/chanmap/chanmap/internal/refdata"
)

var (
	affTunerPrefixRe   = regexp.MustCompile(`^D\d+-`)
	affCallsignTunerRe = regexp.MustCompile(`^[KW][A-Z]{3,4}(?:-(?:TV|CD|LP|DT|LD))?\s+D\d+\s*-\s*`)
	affChannelNumberRe = regexp.MustCompile(`^(.*?)\s+(?:CH\s+)?\d+(?:\.\d+)?(?:/.*)?$`)
	affLeadingNumberRe = regexp.MustCompile(`^\d+\.?\d*\s+`)
	affNetworkSuffixRe = regexp.MustCompile(`(?i)\s+(?:Television\s+)?Network\s*$`)
)

// BroadcastMatch extracts a callsign from the raw name and resolves it
// against the loaded stations. Three outcomes: ("", nil) when the name
// carries no callsign pattern at all, (callsign, nil) when the pattern is
// recognized but the station is unknown, and (callsign, &station) on a hit.
// Callers must keep the first two apart; they get different skip reasons.
func BroadcastMatch(db *refdata.Database, name string) (string, *refdata.Station) {
	callsign := ExtractCallsign(name)
	if callsign == "" {
		return "", nil
	}
	st, ok := db.Station(callsign)
	if !ok {
		return callsign, nil
	}
	return callsign, &st
}

// ParseNetworkAffiliation reduces a raw station affiliation string to the
// primary network name: tuner prefixes and trailing channel/subchannel
// numbers go, only the text before the first ';', '/', ',' or '(' counts,
// and a trailing "(Television) Network" suffix is dropped. Returns "" when
// nothing remains.
func ParseNetworkAffiliation(affiliation string) string {
	s := strings.TrimSpace(affiliation)
	if s == "" {
		return ""
	}

	s = affTunerPrefixRe.ReplaceAllString(s, "")
	s = affCallsignTunerRe.ReplaceAllString(s, "")
	s = affChannelNumberRe.ReplaceAllString(s, "$1")
	s = affLeadingNumberRe.ReplaceAllString(s, "")

	if i := strings.IndexAny(s, ";/,("); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = affNetworkSuffixRe.ReplaceAllString(s, "")

	return strings.ToUpper(strings.TrimSpace(s))
}
