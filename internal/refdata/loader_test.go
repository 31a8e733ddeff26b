package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedUS(t *testing.T) {
	db, err := Loader{}.Load([]string{"us"})
	require.NoError(t, err)

	assert.Equal(t, []string{"us"}, db.Countries())
	assert.NotEmpty(t, db.PremiumNames())

	st, ok := db.Station("WABC-TV")
	require.True(t, ok)
	assert.Equal(t, "NEW YORK", st.City)

	// Suffix-stripped alias points at the same record.
	alias, ok := db.Station("WABC")
	require.True(t, ok)
	assert.Equal(t, st, alias)

	p, ok := db.PremiumByName("Comedy Central")
	require.True(t, ok)
	assert.Equal(t, "Entertainment", p.Category)
}

func TestLoadCombinesCountries(t *testing.T) {
	db, err := Loader{}.Load([]string{"us", "ca"})
	require.NoError(t, err)

	assert.Equal(t, []string{"us", "ca"}, db.Countries())

	_, ok := db.PremiumByName("Crave")
	assert.True(t, ok, "ca premium channels present")
	_, ok = db.PremiumByName("HBO")
	assert.True(t, ok, "us premium channels present")
}

func TestLoadPartialSuccess(t *testing.T) {
	// An unknown country is skipped; the rest still loads.
	db, err := Loader{}.Load([]string{"us", "zz"})
	require.NoError(t, err)
	assert.Equal(t, []string{"us"}, db.Countries())
}

func TestLoadFailsWhenNothingLoads(t *testing.T) {
	_, err := Loader{}.Load([]string{"zz", "xx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the requested countries")

	_, err = Loader{}.Load(nil)
	require.Error(t, err)
}

func TestLoadDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "us"), 0o755))

	stations := `[{"callsign": "KTST-TV", "network_affiliation": "TEST", "community_served_city": "TESTVILLE", "community_served_state": "TS"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "us", "stations.json"), []byte(stations), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "us", "channels.txt"), []byte("Override One\nOverride Two|Sports\n"), 0o644))

	db, err := Loader{Dir: dir}.Load([]string{"us"})
	require.NoError(t, err)

	_, ok := db.Station("KTST")
	assert.True(t, ok, "override stations loaded")
	_, ok = db.Station("WABC-TV")
	assert.False(t, ok, "embedded stations not mixed in when override exists")

	p, ok := db.PremiumByName("Override Two")
	require.True(t, ok)
	assert.Equal(t, "Sports", p.Category)
}

func TestLoadIsIdempotent(t *testing.T) {
	first, err := Loader{}.Load([]string{"us"})
	require.NoError(t, err)
	second, err := Loader{}.Load([]string{"us"})
	require.NoError(t, err)

	assert.Equal(t, first.StationCount(), second.StationCount())
	assert.Equal(t, first.PremiumNames(), second.PremiumNames())
}

func TestNewDatabaseAliasesSuffixes(t *testing.T) {
	db := NewDatabase([]Station{{Callsign: "KQED-DT", City: "SAN FRANCISCO", State: "CA"}}, []Premium{{ChannelName: "HBO"}, {ChannelName: "HBO"}})

	_, ok := db.Station("KQED")
	assert.True(t, ok)
	assert.Equal(t, []string{"HBO"}, db.PremiumNames(), "duplicates collapse")
}
