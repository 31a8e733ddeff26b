// Package refdata loads the per-country reference datasets the matching
// engine runs against: over-the-air broadcast station records indexed by
// callsign, and premium/cable channel name lists.
package refdata

// Station is one over-the-air broadcast station record.
type Station struct {
	Callsign           string `json:"callsign"`
	NetworkAffiliation string `json:"network_affiliation"`
	City               string `json:"community_served_city"`
	State              string `json:"community_served_state"`
	Category           string `json:"category,omitempty"`
}

// Premium is one premium/cable channel record.
type Premium struct {
	ChannelName string
	Category    string
}
