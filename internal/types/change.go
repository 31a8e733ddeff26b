// Package types holds the shared record types passed between the processing
// pipeline, the store, the report exporter, and the API.
package types

import "time"

// Status values for a processed channel.
const (
	StatusRenamed = "Renamed"
	StatusSkipped = "Skipped"
)

// Matcher identifies which reference source produced the new name.
const (
	MatcherStations = "stations.json"
	MatcherPremium  = "channels.txt"
	MatcherNone     = "none"
)

// Skip reasons. The four are deliberately distinct: stale reference data,
// template gaps, true no-matches and no-op renames are different problems.
const (
	ReasonAlreadyCorrect = "Already in correct format"
	ReasonNoMatch        = "No match found in station or premium channel data"
	ReasonMissingFields  = "Missing required fields for OTA format"
)

// ReasonUnknownCallsign marks the recognized-format-but-unknown-station
// outcome for the given callsign.
func ReasonUnknownCallsign(callsign string) string {
	return "Callsign " + callsign + " not found in station data"
}

// ChangeRecord is the outcome of processing one catalog channel. One batch
// of these is the sole artifact the matching core produces; apply and report
// steps consume it later.
type ChangeRecord struct {
	ChannelID     int    `json:"channel_id"`
	ChannelNumber string `json:"channel_number"`
	ChannelGroup  string `json:"channel_group"`
	CurrentName   string `json:"current_name"`
	NewName       string `json:"new_name"`
	Status        string `json:"status"`
	Matcher       string `json:"matcher"`
	MatchMethod   string `json:"match_method,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Run summarizes one processing pass over the catalog snapshot.
type Run struct {
	ID            string    `json:"id"`
	ProcessedAt   time.Time `json:"processed_at"`
	TotalChannels int       `json:"total_channels"`
	Renamed       int       `json:"renamed"`
	Skipped       int       `json:"skipped"`
	StationHits   int       `json:"station_hits"`
	PremiumHits   int       `json:"premium_hits"`
}
