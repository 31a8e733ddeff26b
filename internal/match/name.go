package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chanmap/chanmap/internal/refdata"
)

// DefaultOTAFormat is the out-of-the-box template for over-the-air names.
const DefaultOTAFormat = "{NETWORK} - {STATE} {CITY} ({CALLSIGN})"

var (
	placeholderRe = regexp.MustCompile(`\{(\w+)\}`)
	titleCaser    = cases.Title(language.AmericanEnglish)
)

// BuildName reassembles a canonical base name with previously extracted
// decorations: extra tags first, then the regional indicator in parentheses,
// then all quality tags in original order.
func BuildName(base string, d Decorations) string {
	parts := make([]string, 0, 1+len(d.ExtraTags)+1+len(d.QualityTags))
	parts = append(parts, base)
	parts = append(parts, d.ExtraTags...)
	if d.Regional != "" {
		parts = append(parts, "("+d.Regional+")")
	}
	parts = append(parts, d.QualityTags...)
	return strings.Join(parts, " ")
}

// FormatOTA substitutes station fields into the user-supplied template.
// Every placeholder the template references must resolve to a non-empty
// value; otherwise the attempt fails and the second return is false. This is
// a required-field policy, not optional substitution.
func FormatOTA(station refdata.Station, callsign, format string) (string, bool) {
	values := map[string]string{
		"NETWORK":  ParseNetworkAffiliation(station.NetworkAffiliation),
		"CITY":     titleCaser.String(strings.ToLower(strings.TrimSpace(station.City))),
		"STATE":    strings.ToUpper(strings.TrimSpace(station.State)),
		"CALLSIGN": StripCallsignSuffix(callsign),
	}

	for _, m := range placeholderRe.FindAllStringSubmatch(format, -1) {
		if values[m[1]] == "" {
			return "", false
		}
	}

	result := format
	for field, value := range values {
		result = strings.ReplaceAll(result, "{"+field+"}", value)
	}
	return result, true
}
