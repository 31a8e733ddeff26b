package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldChannelID = "channel_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Matching fields
	FieldMatcher   = "matcher"
	FieldCallsign  = "callsign"
	FieldCountry   = "country"
	FieldScore     = "score"
	FieldReason    = "reason"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
