package jobs

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chanmap/chanmap/internal/catalog"
	"github.com/chanmap/chanmap/internal/config"
	"github.com/chanmap/chanmap/internal/refdata"
	"github.com/chanmap/chanmap/internal/store"
	"github.com/chanmap/chanmap/internal/types"
)

type testEnv struct {
	mock   *catalog.MockServer
	runner *Runner
	store  *store.Store
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	mock := catalog.NewMockServer()
	t.Cleanup(mock.Close)

	db, err := refdata.Loader{}.Load([]string{"us"})
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "chanmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Defaults()
	cfg.Catalog.BaseURL = mock.URL
	cfg.Catalog.Username = "admin"
	cfg.Catalog.Password = "secret"
	if mutate != nil {
		mutate(&cfg)
	}

	client := catalog.New(mock.URL, catalog.Options{
		Username: cfg.Catalog.Username,
		Password: cfg.Catalog.Password,
	})
	runner, err := NewRunner(client, db, st, cfg)
	require.NoError(t, err)

	return &testEnv{mock: mock, runner: runner, store: st}
}

func changeByID(t *testing.T, changes []types.ChangeRecord, id int) types.ChangeRecord {
	t.Helper()
	for _, ch := range changes {
		if ch.ChannelID == id {
			return ch
		}
	}
	t.Fatalf("no change record for channel %d", id)
	return types.ChangeRecord{}
}

func TestProcessDefaultCatalog(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	run, err := env.runner.Process(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, run.TotalChannels)
	assert.Equal(t, 2, run.Renamed)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.StationHits)
	assert.Equal(t, 1, run.PremiumHits)

	changes, err := env.store.Changes(ctx, "")
	require.NoError(t, err)
	require.Len(t, changes, 3)

	ota := changeByID(t, changes, 10)
	assert.Equal(t, types.StatusRenamed, ota.Status)
	assert.Equal(t, types.MatcherStations, ota.Matcher)
	assert.Equal(t, "ABC - NY New York (WABC)", ota.NewName)
	assert.Equal(t, "Locals", ota.ChannelGroup)

	premium := changeByID(t, changes, 11)
	assert.Equal(t, types.StatusRenamed, premium.Status)
	assert.Equal(t, types.MatcherPremium, premium.Matcher)
	assert.Equal(t, "HBO (West) [HD]", premium.NewName)

	skipped := changeByID(t, changes, 12)
	assert.Equal(t, types.StatusSkipped, skipped.Status)
	assert.Equal(t, types.MatcherNone, skipped.Matcher)
	assert.Equal(t, "Some Random Feed 123", skipped.NewName)
	assert.Equal(t, types.ReasonNoMatch, skipped.Reason)
}

func TestProcessAlreadyCorrect(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mock.SetChannels([]catalog.Channel{
		{ID: 20, Name: "ABC - NY New York (WABC)", ChannelGroupID: 1},
	})
	ctx := context.Background()

	run, err := env.runner.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Renamed)
	assert.Equal(t, 1, run.Skipped)

	changes, err := env.store.Changes(ctx, "")
	require.NoError(t, err)
	rec := changeByID(t, changes, 20)
	assert.Equal(t, types.StatusSkipped, rec.Status)
	assert.Equal(t, types.ReasonAlreadyCorrect, rec.Reason)
	assert.Equal(t, rec.CurrentName, rec.NewName)
}

func TestProcessUnknownCallsign(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mock.SetChannels([]catalog.Channel{
		{ID: 21, Name: "Local Feed (KZZZ)", ChannelGroupID: 1},
	})
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	changes, err := env.store.Changes(ctx, "")
	require.NoError(t, err)
	rec := changeByID(t, changes, 21)
	assert.Equal(t, types.StatusSkipped, rec.Status)
	assert.Contains(t, rec.Reason, "KZZZ")
}

func TestProcessGroupFilter(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Matching.SelectedGroups = []string{"Locals", "Nonexistent"}
	})
	ctx := context.Background()

	run, err := env.runner.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.TotalChannels, "only the Locals channel is in scope")

	changes, err := env.store.Changes(ctx, "")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 10, changes[0].ChannelID)
}

func TestProcessNoValidGroups(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Matching.SelectedGroups = []string{"Nope"}
	})

	_, err := env.runner.Process(context.Background())
	assert.ErrorIs(t, err, ErrNoGroups)
}

func TestProcessReplacesPreviousBatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	run1, err := env.runner.Process(ctx)
	require.NoError(t, err)

	env.mock.SetChannels([]catalog.Channel{
		{ID: 30, Name: "Comedy Central", ChannelGroupID: 2},
	})
	run2, err := env.runner.Process(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, run1.ID, run2.ID)

	changes, err := env.store.Changes(ctx, "")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 30, changes[0].ChannelID)
}

func TestRenameAppliesBatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	n, err := env.runner.Rename(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, env.mock.Edits, 1)
	edits := env.mock.Edits[0]
	require.Len(t, edits, 2)
	names := map[int]string{}
	for _, e := range edits {
		names[e.ID] = e.Name
	}
	assert.Equal(t, "ABC - NY New York (WABC)", names[10])
	assert.Equal(t, "HBO (West) [HD]", names[11])
	assert.Equal(t, 1, env.mock.Refreshes)
}

func TestRenameWithoutRun(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.runner.Rename(context.Background())
	assert.ErrorIs(t, err, store.ErrNoRun)
}

func TestRenameNothingToDo(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mock.SetChannels([]catalog.Channel{
		{ID: 40, Name: "Some Random Feed 123", ChannelGroupID: 2},
	})
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	n, err := env.runner.Rename(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, env.mock.Edits)
	assert.Zero(t, env.mock.Refreshes)
}

func TestSuffixUnknown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	n, err := env.runner.SuffixUnknown(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, env.mock.Edits, 1)
	require.Len(t, env.mock.Edits[0], 1)
	assert.Equal(t, 12, env.mock.Edits[0][0].ID)
	assert.Equal(t, "Some Random Feed 123 [Unk]", env.mock.Edits[0][0].Name)
}

func TestSuffixUnknownIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mock.SetChannels([]catalog.Channel{
		{ID: 41, Name: "Mystery Feed [Unk]", ChannelGroupID: 2},
	})
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	n, err := env.runner.SuffixUnknown(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "suffix is not stacked on repeated runs")
	assert.Empty(t, env.mock.Edits)
}

func TestApplyLogos(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Matching.DefaultLogo = "Generic-TV"
	})
	ctx := context.Background()

	n, err := env.runner.ApplyLogos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "channels 10 and 12 have no logo")

	require.Len(t, env.mock.Edits, 1)
	for _, e := range env.mock.Edits[0] {
		require.NotNil(t, e.LogoID)
		assert.Equal(t, 9, *e.LogoID)
		assert.Empty(t, e.Name)
	}
}

func TestApplyLogosUnknownName(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Matching.DefaultLogo = "does-not-exist"
	})

	_, err := env.runner.ApplyLogos(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestPreviewCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	data, err := env.runner.PreviewCSV(ctx)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three records")
	assert.Equal(t, "channel_id", rows[0][0])
}

func TestPreviewFile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.runner.Process(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "preview.csv")
	n, err := env.runner.Preview(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
