// Package catalog implements the client for the host catalog's REST API:
// token auth, paginated listing, bulk field updates, and the M3U refresh
// trigger. The matching core never talks to the network; it consumes the
// snapshots this package produces.
package catalog

import "encoding/json"

// Channel is one catalog channel as listed by the API.
type Channel struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	ChannelNumber  json.Number `json:"channel_number"`
	ChannelGroupID int         `json:"channel_group_id"`
	LogoID         *int        `json:"logo_id"`
}

// Group is one channel group.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Logo is one entry in the catalog's logo manager.
type Logo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ChannelEdit is one element of a bulk PATCH payload. Only set fields are
// serialized.
type ChannelEdit struct {
	ID     int    `json:"id"`
	Name   string `json:"name,omitempty"`
	LogoID *int   `json:"logo_id,omitempty"`
}
