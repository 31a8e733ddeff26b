package refdata

import (
	"bufio"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	xlog "github.com/chanmap/chanmap/internal/log"
)

//go:embed data
var embedded embed.FS

var callsignSuffixRe = regexp.MustCompile(`-(?:TV|CD|LP|DT|LD)$`)

// Database holds the combined, immutable reference state for one load. A new
// load produces a new Database; callers swap the pointer, there is no
// in-place reload.
type Database struct {
	stations     map[string]Station
	premiumNames []string
	premium      map[string]Premium
	countries    []string
}

// NewDatabase builds an in-memory database from explicit records, bypassing
// dataset files. Suffix-stripped callsign aliases are indexed the same way
// Load does it.
func NewDatabase(stations []Station, premium []Premium) *Database {
	db := &Database{
		stations: make(map[string]Station, len(stations)*2),
		premium:  make(map[string]Premium, len(premium)),
	}
	for _, st := range stations {
		cs := strings.TrimSpace(st.Callsign)
		if cs == "" {
			continue
		}
		db.stations[cs] = st
		if base := callsignSuffixRe.ReplaceAllString(cs, ""); base != cs {
			db.stations[base] = st
		}
	}
	for _, p := range premium {
		if _, dup := db.premium[p.ChannelName]; dup {
			continue
		}
		db.premium[p.ChannelName] = p
		db.premiumNames = append(db.premiumNames, p.ChannelName)
	}
	return db
}

// Loader resolves per-country datasets, preferring an on-disk override
// directory over the embedded copy.
type Loader struct {
	// Dir optionally points at a directory laid out like the embedded data:
	// <dir>/<cc>/stations.json and <dir>/<cc>/channels.txt.
	Dir string
}

// Load builds a combined database for the given country codes. Countries
// whose datasets cannot be located are logged and skipped; Load fails only
// when nothing at all could be loaded.
func (l Loader) Load(countries []string) (*Database, error) {
	if len(countries) == 0 {
		return nil, fmt.Errorf("refdata: no countries selected")
	}

	logger := xlog.WithComponent("refdata")

	db := &Database{
		stations: make(map[string]Station),
		premium:  make(map[string]Premium),
	}

	loaded := 0
	for _, cc := range countries {
		cc = strings.ToLower(strings.TrimSpace(cc))
		if cc == "" {
			continue
		}

		stations, serr := l.loadStations(cc)
		premium, perr := l.loadPremium(cc)
		if serr != nil && perr != nil {
			logger.Warn().
				Str(xlog.FieldCountry, cc).
				AnErr("stations_err", serr).
				AnErr("channels_err", perr).
				Msg("no datasets for country")
			continue
		}

		for _, st := range stations {
			cs := strings.TrimSpace(st.Callsign)
			if cs == "" {
				continue
			}
			db.stations[cs] = st
			// Suffix variants of a callsign denote the same station, so
			// aliasing the base callsign is safe (last write wins).
			if base := callsignSuffixRe.ReplaceAllString(cs, ""); base != cs {
				db.stations[base] = st
			}
		}
		for _, p := range premium {
			if _, dup := db.premium[p.ChannelName]; dup {
				continue
			}
			db.premium[p.ChannelName] = p
			db.premiumNames = append(db.premiumNames, p.ChannelName)
		}

		db.countries = append(db.countries, cc)
		loaded++
		logger.Info().
			Str(xlog.FieldCountry, cc).
			Int("stations", len(stations)).
			Int("premium_channels", len(premium)).
			Msg("country dataset loaded")
	}

	if loaded == 0 {
		return nil, fmt.Errorf("refdata: none of the requested countries could be loaded: %s",
			strings.Join(countries, ", "))
	}
	return db, nil
}

func (l Loader) open(cc, file string) (fs.File, error) {
	if l.Dir != "" {
		f, err := os.Open(filepath.Join(l.Dir, cc, file))
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return embedded.Open(path.Join("data", cc, file))
}

func (l Loader) loadStations(cc string) ([]Station, error) {
	f, err := l.open(cc, "stations.json")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stations []Station
	if err := json.NewDecoder(f).Decode(&stations); err != nil {
		return nil, fmt.Errorf("decode stations.json for %s: %w", cc, err)
	}
	return stations, nil
}

// loadPremium reads one channel per line. An optional category follows the
// name after a "|" separator; blank lines and "#" comments are skipped.
func (l Loader) loadPremium(cc string) ([]Premium, error) {
	f, err := l.open(cc, "channels.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Premium
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, category, _ := strings.Cut(line, "|")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Premium{
			ChannelName: name,
			Category:    strings.TrimSpace(category),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read channels.txt for %s: %w", cc, err)
	}
	return out, nil
}

// Station looks up a broadcast station by callsign, trying the exact form
// first and then the suffix-stripped base.
func (db *Database) Station(callsign string) (Station, bool) {
	if st, ok := db.stations[callsign]; ok {
		return st, true
	}
	if base := callsignSuffixRe.ReplaceAllString(callsign, ""); base != callsign {
		if st, ok := db.stations[base]; ok {
			return st, true
		}
	}
	return Station{}, false
}

// PremiumNames returns the match corpus for fuzzy matching. Callers must not
// mutate the returned slice.
func (db *Database) PremiumNames() []string {
	return db.premiumNames
}

// PremiumByName returns the full record for a canonical premium channel name.
func (db *Database) PremiumByName(name string) (Premium, bool) {
	p, ok := db.premium[name]
	return p, ok
}

// Countries lists the country codes that actually loaded.
func (db *Database) Countries() []string {
	return db.countries
}

// StationCount reports how many distinct callsign keys are indexed.
func (db *Database) StationCount() int {
	return len(db.stations)
}
