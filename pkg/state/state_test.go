package state

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/wordcrawl/pkg/crawler"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
)

func sampleState() *State {
	st := New("https://example.com/")
	st.DepthReached = 2
	st.Visited = []string{"https://example.com/", "https://example.com/a"}
	st.Staged = []string{"https://example.com/b"}
	st.Unvisited = []string{"https://example.com/c", "https://example.com/d", "https://example.com/e"}
	st.Skipped = []string{"mailto:x@example.com"}
	st.Errored = []string{"https://example.com/broken"}
	st.SitePolicy = crawler.SitePolicySibling
	st.Filters = []extractor.FilterMode{extractor.FilterDeunicode, extractor.FilterNoNumbers}
	st.Depth = 4
	st.IncludeJS = true
	st.MinWordLength = 2
	st.RequestsPerSecond = 3
	st.LimitConcurrent = 7
	return st
}

func TestRestore(t *testing.T) {
	st := sampleState()
	db := urldb.New()

	depth := st.Restore(db)

	assert.Equal(t, 2, depth)
	assert.Equal(t, 2, db.NumVisited())
	assert.Equal(t, 1, db.NumStaged())
	assert.Equal(t, 3, db.NumUnvisited())
	assert.Equal(t, 1, db.NumSkipped())
	assert.Equal(t, 1, db.NumErrored())
	assert.Equal(t, 8, db.Len())

	assert.Empty(t, st.Visited)
	assert.Empty(t, st.Staged)
	assert.Empty(t, st.Unvisited)
	assert.Empty(t, st.Skipped)
	assert.Empty(t, st.Errored)
	assert.Equal(t, 0, st.Len())
}

func TestRestoreOverwritesExisting(t *testing.T) {
	db := urldb.New()
	db.MarkUnvisited("https://example.com/a")

	st := New("https://example.com/")
	st.Visited = []string{"https://example.com/a"}
	st.Restore(db)

	status, ok := db.Status("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, urldb.Visited, status)
}

func TestCapture(t *testing.T) {
	db := urldb.New()
	db.MarkVisited("v1")
	db.MarkVisited("v2")
	db.MarkStaged("s1")
	db.MarkUnvisited("u1")
	db.MarkSkipped("k1")
	db.MarkErrored("e1")

	settings := DefaultSettings()
	st := Capture("https://example.com/", 3, db, settings)
	settings.Filters[0] = extractor.FilterDecancer

	assert.Equal(t, "https://example.com/", st.StartingURL)
	assert.Equal(t, 3, st.DepthReached)
	assert.Equal(t, []string{"v1", "v2"}, st.Visited)
	assert.Equal(t, []string{"s1"}, st.Staged)
	assert.Equal(t, []string{"u1"}, st.Unvisited)
	assert.Equal(t, []string{"k1"}, st.Skipped)
	assert.Equal(t, []string{"e1"}, st.Errored)
	assert.Equal(t, []extractor.FilterMode{extractor.FilterNone}, st.Filters)
	assert.Equal(t, 6, st.Len())

	// The snapshot does not drain the store.
	assert.Equal(t, 6, db.Len())
}

func TestMerge(t *testing.T) {
	persisted := sampleState()
	current := DefaultSettings()
	current.Depth = 9

	tests := []struct {
		name      string
		persisted *State
		strict    bool
		want      Settings
	}{
		{"resume keeps current", persisted, false, current},
		{"strict uses persisted", persisted, true, persisted.Settings},
		{"strict without state", nil, true, current},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.persisted, current, tt.strict)
			assert.Equal(t, tt.want, got)
		})
	}

	got := Merge(persisted, current, true)
	got.Filters[0] = extractor.FilterNone
	assert.Equal(t, extractor.FilterDeunicode, persisted.Filters[0])
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, crawler.SitePolicySame, s.SitePolicy)
	assert.Equal(t, []extractor.FilterMode{extractor.FilterNone}, s.Filters)
	assert.Equal(t, 1, s.Depth)
	assert.Equal(t, 3, s.MinWordLength)
	assert.Equal(t, math.MaxInt, s.MaxWordLength)
	assert.Equal(t, 5, s.RequestsPerSecond)
	assert.Equal(t, 5, s.LimitConcurrent)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"state.json", "state.yaml", "state.yml", "state.db", "state.sqlite"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := sampleState()

			require.NoError(t, Save(path, want))
			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// Saving again replaces the previous content.
			want.Errored = nil
			want.DepthReached = 3
			require.NoError(t, Save(path, want))
			got, err = Load(path)
			require.NoError(t, err)
			assert.Equal(t, 3, got.DepthReached)
			assert.Empty(t, got.Errored)
		})
	}
}

func TestJSONFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, Save(path, sampleState()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{
		"startingUrl", "depthReached", "visited", "staged", "unvisited", "skipped", "errored",
		"sitePolicy", "filters", "depth", "includeJs", "includeCss", "minWordLength",
		"maxWordLength", "requestsPerSecond", "limitConcurrent",
	} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}
	assert.Contains(t, string(data), `"sibling"`)
	assert.Contains(t, string(data), `"deunicode"`)
}

// writeStateJSON saves sampleState as JSON after mutate has edited its
// decoded fields.
func writeStateJSON(t *testing.T, path string, mutate func(map[string]any)) {
	t.Helper()
	st := sampleState()
	st.MaxWordLength = 40
	data, err := json.Marshal(st)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	mutate(fields)
	data, err = json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	partial := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partial,
		[]byte(`{"startingUrl":"https://a.com/","visited":["https://a.com/"]}`), 0o600))

	badPolicy := filepath.Join(dir, "policy.json")
	writeStateJSON(t, badPolicy, func(f map[string]any) { f["sitePolicy"] = "nearby" })
	noFilters := filepath.Join(dir, "nofilters.json")
	writeStateJSON(t, noFilters, func(f map[string]any) { delete(f, "filters") })
	noLimit := filepath.Join(dir, "nolimit.json")
	writeStateJSON(t, noLimit, func(f map[string]any) { f["limitConcurrent"] = 0 })
	inverted := filepath.Join(dir, "inverted.json")
	writeStateJSON(t, inverted, func(f map[string]any) { f["maxWordLength"] = 1 })
	relative := filepath.Join(dir, "relative.json")
	writeStateJSON(t, relative, func(f map[string]any) { f["startingUrl"] = "" })

	partialYAML := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(partialYAML, []byte("startingUrl: https://a.com/\ndepth: 2\n"), 0o600))

	invalidDB := filepath.Join(dir, "invalid.db")
	st := sampleState()
	st.LimitConcurrent = 0
	require.NoError(t, Save(invalidDB, st))

	tests := []struct {
		name string
		path string
	}{
		{"unsupported extension", filepath.Join(dir, "state.txt")},
		{"missing file", filepath.Join(dir, "missing.json")},
		{"malformed json", bad},
		{"partial json", partial},
		{"partial yaml", partialYAML},
		{"unknown policy", badPolicy},
		{"missing filters", noFilters},
		{"zero concurrency", noLimit},
		{"max below min", inverted},
		{"blank starting url", relative},
		{"invalid sqlite settings", invalidDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Load(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStateFile))
			assert.Nil(t, st)
		})
	}
}

func TestLoadSQLiteMissingMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, Save(path, sampleState()))

	db, err := openSQLite(path)
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM meta WHERE key = 'settings'")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrStateFile)
	assert.ErrorContains(t, err, "settings")
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.NoError(t, sampleState().Validate())

	s := DefaultSettings()
	s.RequestsPerSecond = crawler.MaxRequestsPerSecond + 1
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.Depth = -1
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.SitePolicy = crawler.SitePolicy(9)
	assert.Error(t, s.Validate())
}

func TestSaveUnsupportedExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "state.toml"), sampleState())
	assert.ErrorIs(t, err, ErrStateFile)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":    FormatJSON,
		"a.JSON":    FormatJSON,
		"a.yaml":    FormatYAML,
		"a.yml":     FormatYAML,
		"a.db":      FormatSQLite,
		"a.sqlite3": FormatSQLite,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
}
