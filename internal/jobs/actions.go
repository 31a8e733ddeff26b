package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/chanmap/chanmap/internal/catalog"
	xlog "github.com/chanmap/chanmap/internal/log"
	"github.com/chanmap/chanmap/internal/metrics"
	"github.com/chanmap/chanmap/internal/report"
	"github.com/chanmap/chanmap/internal/types"
)

// Preview exports the latest batch to a CSV file at path. Returns the number
// of records written.
func (r *Runner) Preview(ctx context.Context, path string) (int, error) {
	changes, err := r.store.Changes(ctx, "")
	if err != nil {
		return 0, err
	}
	if err := report.ExportCSV(path, changes); err != nil {
		return 0, err
	}
	logger := xlog.WithComponentFromContext(ctx, "jobs")
	logger.Info().
		Str(xlog.FieldEvent, "preview.exported").
		Str(xlog.FieldPath, path).
		Int("records", len(changes)).
		Msg("preview exported")
	return len(changes), nil
}

// PreviewCSV renders the latest batch as CSV bytes for HTTP delivery.
func (r *Runner) PreviewCSV(ctx context.Context) ([]byte, error) {
	changes, err := r.store.Changes(ctx, "")
	if err != nil {
		return nil, err
	}
	return report.MarshalCSV(changes)
}

// Rename applies every proposed rename from the latest batch to the catalog
// in one bulk edit and triggers an M3U refresh. Returns the number of
// channels renamed; zero with no error when the batch holds no renames.
func (r *Runner) Rename(ctx context.Context) (int, error) {
	logger := xlog.WithComponentFromContext(ctx, "jobs")

	renamed, err := r.store.Changes(ctx, types.StatusRenamed)
	if err != nil {
		return 0, err
	}
	if len(renamed) == 0 {
		return 0, nil
	}

	if err := r.client.Login(ctx); err != nil {
		return 0, fmt.Errorf("catalog login: %w", err)
	}

	edits := make([]catalog.ChannelEdit, 0, len(renamed))
	for _, ch := range renamed {
		edits = append(edits, catalog.ChannelEdit{ID: ch.ChannelID, Name: ch.NewName})
	}
	if err := r.client.BulkEditChannels(ctx, edits); err != nil {
		return 0, fmt.Errorf("apply renames: %w", err)
	}
	if err := r.client.RefreshM3U(ctx); err != nil {
		logger.Warn().Err(err).Msg("m3u refresh failed after rename")
	}

	metrics.RenamesAppliedTotal.Add(float64(len(edits)))
	logger.Info().
		Str(xlog.FieldEvent, "rename.applied").
		Int("channels", len(edits)).
		Msg("renames applied")
	return len(edits), nil
}

// SuffixUnknown appends the configured suffix to every skipped channel from
// the latest batch. Channels already carrying the suffix are left alone so
// repeated runs stay idempotent.
func (r *Runner) SuffixUnknown(ctx context.Context) (int, error) {
	logger := xlog.WithComponentFromContext(ctx, "jobs")

	suffix := r.cfg.Matching.Suffix()
	if strings.TrimSpace(suffix) == "" {
		return 0, fmt.Errorf("jobs: no unknown-channel suffix configured")
	}

	skipped, err := r.store.Changes(ctx, types.StatusSkipped)
	if err != nil {
		return 0, err
	}

	edits := make([]catalog.ChannelEdit, 0, len(skipped))
	for _, ch := range skipped {
		if strings.HasSuffix(ch.CurrentName, suffix) {
			continue
		}
		edits = append(edits, catalog.ChannelEdit{ID: ch.ChannelID, Name: ch.CurrentName + suffix})
	}
	if len(edits) == 0 {
		return 0, nil
	}

	if err := r.client.Login(ctx); err != nil {
		return 0, fmt.Errorf("catalog login: %w", err)
	}
	if err := r.client.BulkEditChannels(ctx, edits); err != nil {
		return 0, fmt.Errorf("apply suffix: %w", err)
	}
	if err := r.client.RefreshM3U(ctx); err != nil {
		logger.Warn().Err(err).Msg("m3u refresh failed after suffix")
	}

	logger.Info().
		Str(xlog.FieldEvent, "suffix.applied").
		Str("suffix", suffix).
		Int("channels", len(edits)).
		Msg("suffix applied to unknown channels")
	return len(edits), nil
}

// ApplyLogos assigns the configured default logo to every channel that has
// none. The logo is resolved by its display name in the catalog's logo
// manager, case-insensitively.
func (r *Runner) ApplyLogos(ctx context.Context) (int, error) {
	logger := xlog.WithComponentFromContext(ctx, "jobs")

	want := strings.TrimSpace(r.cfg.Matching.DefaultLogo)
	if want == "" {
		return 0, fmt.Errorf("jobs: no default logo configured")
	}

	if err := r.client.Login(ctx); err != nil {
		return 0, fmt.Errorf("catalog login: %w", err)
	}

	logos, err := r.client.Logos(ctx)
	if err != nil {
		return 0, fmt.Errorf("list logos: %w", err)
	}
	logoID := 0
	for _, l := range logos {
		if strings.EqualFold(l.Name, want) {
			logoID = l.ID
			break
		}
	}
	if logoID == 0 {
		return 0, fmt.Errorf("jobs: logo %q not found among %d logo-manager entries", want, len(logos))
	}

	channels, err := r.client.Channels(ctx)
	if err != nil {
		return 0, fmt.Errorf("list channels: %w", err)
	}

	edits := make([]catalog.ChannelEdit, 0)
	for _, ch := range channels {
		if ch.LogoID == nil || *ch.LogoID == 0 {
			id := logoID
			edits = append(edits, catalog.ChannelEdit{ID: ch.ID, LogoID: &id})
		}
	}
	if len(edits) == 0 {
		return 0, nil
	}

	if err := r.client.BulkEditChannels(ctx, edits); err != nil {
		return 0, fmt.Errorf("apply logos: %w", err)
	}
	if err := r.client.RefreshM3U(ctx); err != nil {
		logger.Warn().Err(err).Msg("m3u refresh failed after logo assignment")
	}

	logger.Info().
		Str(xlog.FieldEvent, "logos.applied").
		Str("logo", want).
		Int("channels", len(edits)).
		Msg("default logo applied")
	return len(edits), nil
}
