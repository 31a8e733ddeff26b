package jobs

import (
	"strings"

	"github.com/chanmap/chanmap/internal/catalog"
	"github.com/chanmap/chanmap/internal/match"
	"github.com/chanmap/chanmap/internal/types"
)

// matchChannel runs the two-phase matching for one catalog channel: the
// broadcast path first (callsign then station lookup then template), the
// premium path only when the broadcast path produced no name. A proposed
// name equal to the current one is a skip, not a rename.
func (r *Runner) matchChannel(ch catalog.Channel, groupName string) types.ChangeRecord {
	current := strings.TrimSpace(ch.Name)
	if groupName == "" {
		groupName = "No Group"
	}

	rec := types.ChangeRecord{
		ChannelID:     ch.ID,
		ChannelNumber: ch.ChannelNumber.String(),
		ChannelGroup:  groupName,
		CurrentName:   current,
		NewName:       current,
		Status:        types.StatusSkipped,
		Matcher:       types.MatcherNone,
	}

	var newName, matcher, method, skipReason string

	callsign, station := match.BroadcastMatch(r.db, current)
	if callsign != "" {
		if station != nil {
			if name, ok := match.FormatOTA(*station, callsign, r.cfg.Matching.OTAFormat); ok {
				newName = name
				matcher = types.MatcherStations
				method = "callsign " + match.StripCallsignSuffix(callsign)
			} else {
				skipReason = types.ReasonMissingFields
			}
		} else {
			skipReason = types.ReasonUnknownCallsign(callsign)
		}
	}

	if newName == "" {
		if res, deco := r.premium.Match(current); res.Matched() {
			newName = match.BuildName(res.Ref, deco)
			matcher = types.MatcherPremium
			method = res.Type
		}
	}

	switch {
	case newName != "" && newName != current:
		rec.NewName = newName
		rec.Status = types.StatusRenamed
		rec.Matcher = matcher
		rec.MatchMethod = method
	case newName == current && newName != "":
		rec.Reason = types.ReasonAlreadyCorrect
	case skipReason != "":
		rec.Reason = skipReason
	default:
		rec.Reason = types.ReasonNoMatch
	}
	return rec
}
