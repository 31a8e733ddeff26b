// Package report exports a processed batch as a CSV preview so the rename
// can be reviewed before anything is written back to the catalog.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/chanmap/chanmap/internal/types"
)

// Header is the column order of the preview CSV.
var Header = []string{
	"channel_id",
	"channel_number",
	"channel_group",
	"current_name",
	"new_name",
	"status",
	"dbase",
	"reason",
}

// MarshalCSV renders the batch as CSV bytes, one row per record.
func MarshalCSV(changes []types.ChangeRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, ch := range changes {
		row := []string{
			strconv.Itoa(ch.ChannelID),
			ch.ChannelNumber,
			ch.ChannelGroup,
			ch.CurrentName,
			ch.NewName,
			ch.Status,
			dbase(ch),
			ch.Reason,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportCSV writes the batch to path atomically. Readers never observe a
// partially written file.
func ExportCSV(path string, changes []types.ChangeRecord) error {
	data, err := MarshalCSV(changes)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// dbase labels the reference source column. Skipped rows carry the matcher
// that produced the skip when one was involved, "none" otherwise.
func dbase(ch types.ChangeRecord) string {
	switch ch.Matcher {
	case types.MatcherStations:
		return "stations"
	case types.MatcherPremium:
		return "premium"
	default:
		return "none"
	}
}
