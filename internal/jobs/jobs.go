// Package jobs drives the channel standardization pipeline: a processing
// pass matches every catalog channel against the reference data and persists
// one batch of change records; the apply actions consume that batch later.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chanmap/chanmap/internal/catalog"
	"github.com/chanmap/chanmap/internal/config"
	xlog "github.com/chanmap/chanmap/internal/log"
	"github.com/chanmap/chanmap/internal/match"
	"github.com/chanmap/chanmap/internal/metrics"
	"github.com/chanmap/chanmap/internal/refdata"
	"github.com/chanmap/chanmap/internal/similarity"
	"github.com/chanmap/chanmap/internal/store"
	"github.com/chanmap/chanmap/internal/types"
)

// ErrNoGroups is returned when none of the configured group names exist in
// the catalog.
var ErrNoGroups = errors.New("jobs: none of the selected groups exist in the catalog")

// Runner executes processing passes and the follow-up actions against one
// catalog. It is safe for sequential use; passes are not concurrent.
type Runner struct {
	client  catalog.ClientInterface
	db      *refdata.Database
	store   *store.Store
	cfg     config.Config
	premium *match.PremiumMatcher
	now     func() time.Time
	newID   func() string
}

// NewRunner wires a runner from loaded reference data and configuration.
// The similarity strategy must already have passed config validation.
func NewRunner(client catalog.ClientInterface, db *refdata.Database, st *store.Store, cfg config.Config) (*Runner, error) {
	sim, err := similarity.New(cfg.Matching.Algorithm)
	if err != nil {
		return nil, err
	}
	pm := match.NewPremiumMatcher(db.PremiumNames(), cfg.Matching.IgnoredTags, sim, cfg.Matching.Threshold())
	return &Runner{
		client:  client,
		db:      db,
		store:   st,
		cfg:     cfg,
		premium: pm,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Process loads the catalog snapshot, matches every channel in the selected
// groups and atomically replaces the persisted batch with the outcome.
func (r *Runner) Process(ctx context.Context) (types.Run, error) {
	runID := r.newID()
	ctx = xlog.ContextWithRunID(ctx, runID)
	logger := xlog.WithComponentFromContext(ctx, "jobs")
	start := r.now()

	if err := r.client.Login(ctx); err != nil {
		return types.Run{}, fmt.Errorf("catalog login: %w", err)
	}

	groups, err := r.client.Groups(ctx)
	if err != nil {
		return types.Run{}, fmt.Errorf("list groups: %w", err)
	}
	groupNames, targetIDs, err := r.selectGroups(groups, logger)
	if err != nil {
		return types.Run{}, err
	}

	channels, err := r.client.Channels(ctx)
	if err != nil {
		return types.Run{}, fmt.Errorf("list channels: %w", err)
	}

	run := types.Run{ID: runID, ProcessedAt: start}
	var changes []types.ChangeRecord

	for _, ch := range channels {
		if _, ok := targetIDs[ch.ChannelGroupID]; !ok {
			continue
		}
		run.TotalChannels++
		metrics.ChannelsProcessedTotal.Inc()

		rec := r.matchChannel(ch, groupNames[ch.ChannelGroupID])
		changes = append(changes, rec)

		switch rec.Status {
		case types.StatusRenamed:
			run.Renamed++
			metrics.RecordRename(rec.Matcher)
			if rec.Matcher == types.MatcherStations {
				run.StationHits++
			} else {
				run.PremiumHits++
			}
			logger.Debug().
				Int(xlog.FieldChannelID, rec.ChannelID).
				Str(xlog.FieldMatcher, rec.Matcher).
				Str("current_name", rec.CurrentName).
				Str("new_name", rec.NewName).
				Msg("rename proposed")
		case types.StatusSkipped:
			run.Skipped++
			metrics.RecordSkip(skipCategory(rec.Reason))
		}
	}

	if err := r.store.ReplaceRun(ctx, run, changes); err != nil {
		return types.Run{}, fmt.Errorf("persist run: %w", err)
	}

	metrics.ProcessDuration.Observe(r.now().Sub(start).Seconds())
	logger.Info().
		Str(xlog.FieldEvent, "process.complete").
		Int("total", run.TotalChannels).
		Int("renamed", run.Renamed).
		Int("skipped", run.Skipped).
		Int("station_hits", run.StationHits).
		Int("premium_hits", run.PremiumHits).
		Msg("processing pass complete")
	return run, nil
}

// selectGroups resolves the configured group-name filter against the
// catalog's groups. An empty filter selects everything; a filter where no
// name resolves is an error, unknown names in a partly valid filter only
// warn.
func (r *Runner) selectGroups(groups []catalog.Group, logger zerolog.Logger) (map[int]string, map[int]struct{}, error) {
	idToName := make(map[int]string, len(groups))
	nameToID := make(map[string]int, len(groups))
	for _, g := range groups {
		idToName[g.ID] = g.Name
		nameToID[g.Name] = g.ID
	}

	selected := make(map[int]struct{}, len(groups))
	if len(r.cfg.Matching.SelectedGroups) == 0 {
		for id := range idToName {
			selected[id] = struct{}{}
		}
		return idToName, selected, nil
	}

	var unknown []string
	for _, name := range r.cfg.Matching.SelectedGroups {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if id, ok := nameToID[name]; ok {
			selected[id] = struct{}{}
		} else {
			unknown = append(unknown, name)
		}
	}
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoGroups, strings.Join(unknown, ", "))
	}
	if len(unknown) > 0 {
		logger.Warn().Strs("groups", unknown).Msg("selected groups not found in catalog")
	}
	return idToName, selected, nil
}

func skipCategory(reason string) string {
	switch {
	case reason == types.ReasonAlreadyCorrect:
		return metrics.SkipAlreadyCorrect
	case reason == types.ReasonMissingFields:
		return metrics.SkipMissingFields
	case reason == types.ReasonNoMatch:
		return metrics.SkipNoMatch
	case strings.HasPrefix(reason, "Callsign "):
		return metrics.SkipUnknownCallsign
	default:
		return metrics.SkipNoMatch
	}
}
