package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
)

// ErrStateFile reports a state file that cannot be read or written.
var ErrStateFile = errors.New("state file")

// Format is an on-disk state encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", ErrStateFile, filepath.Ext(path))
	}
}

// Load reads the state stored at path.
func Load(path string) (*State, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStateFile, err)
	}

	var st *State
	switch format {
	case FormatSQLite:
		st, err = loadSQLite(path)
	default:
		st, err = loadFile(path, format)
	}
	if err == nil {
		err = st.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStateFile, path, err)
	}
	return st, nil
}

// Keys every state file carries. Missing keys are rejected rather than
// read as zero values.
var (
	stateKeys = []string{
		"startingUrl", "depthReached",
		"visited", "staged", "unvisited", "skipped", "errored",
	}
	settingsKeys = []string{
		"sitePolicy", "filters", "depth", "includeJs", "includeCss",
		"minWordLength", "maxWordLength", "requestsPerSecond", "limitConcurrent",
	}
)

func requireKeys[V any](fields map[string]V, keys []string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save writes st to path, replacing any previous content.
func Save(path string, st *State) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatSQLite:
		err = saveSQLite(path, st)
	default:
		err = saveFile(path, st, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStateFile, path, err)
	}
	return nil
}

func loadFile(path string, format Format) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var fields map[string]any
	if err := unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if err := requireKeys(fields, slices.Concat(stateKeys, settingsKeys)); err != nil {
		return nil, err
	}

	st := &State{}
	if err := unmarshal(data, st); err != nil {
		return nil, err
	}
	return st, nil
}

func saveFile(path string, st *State, format Format) error {
	var (
		data []byte
		err  error
	)
	if format == FormatYAML {
		data, err = yaml.Marshal(st)
	} else {
		data, err = json.MarshalIndent(st, "", "  ")
	}
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS urls (
	url    TEXT PRIMARY KEY,
	status TEXT NOT NULL
);`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func saveSQLite(path string, st *State) (err error) {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	settings, err := json.Marshal(st.Settings)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM meta", "DELETE FROM urls"} {
		if _, err = tx.Exec(stmt); err != nil {
			return err
		}
	}

	meta := map[string]string{
		"startingUrl":  st.StartingURL,
		"depthReached": strconv.Itoa(st.DepthReached),
		"settings":     string(settings),
	}
	for k, v := range meta {
		if _, err = tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}

	insert, err := tx.Prepare("INSERT OR REPLACE INTO urls (url, status) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer insert.Close()
	for _, part := range st.partitions() {
		for _, u := range part.urls {
			if _, err = insert.Exec(u, part.status.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func loadSQLite(path string) (*State, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	st := &State{}
	rows, err := db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, err
		}
		seen[k] = true
		switch k {
		case "startingUrl":
			st.StartingURL = v
		case "depthReached":
			if st.DepthReached, err = strconv.Atoi(v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("depth reached: %w", err)
			}
		case "settings":
			var fields map[string]json.RawMessage
			if err := json.Unmarshal([]byte(v), &fields); err != nil {
				rows.Close()
				return nil, fmt.Errorf("settings: %w", err)
			}
			if err := requireKeys(fields, settingsKeys); err != nil {
				rows.Close()
				return nil, fmt.Errorf("settings: %w", err)
			}
			if err := json.Unmarshal([]byte(v), &st.Settings); err != nil {
				rows.Close()
				return nil, fmt.Errorf("settings: %w", err)
			}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := requireKeys(seen, []string{"startingUrl", "depthReached", "settings"}); err != nil {
		return nil, err
	}

	rows, err = db.Query("SELECT url, status FROM urls ORDER BY url")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u, name string
		if err := rows.Scan(&u, &name); err != nil {
			return nil, err
		}
		status, err := urldb.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		st.appendURL(u, status)
	}
	return st, rows.Err()
}

type partition struct {
	status urldb.Status
	urls   []string
}

func (s *State) partitions() []partition {
	return []partition{
		{urldb.Visited, s.Visited},
		{urldb.Staged, s.Staged},
		{urldb.Unvisited, s.Unvisited},
		{urldb.Skipped, s.Skipped},
		{urldb.Errored, s.Errored},
	}
}

func (s *State) appendURL(u string, status urldb.Status) {
	switch status {
	case urldb.Visited:
		s.Visited = append(s.Visited, u)
	case urldb.Staged:
		s.Staged = append(s.Staged, u)
	case urldb.Unvisited:
		s.Unvisited = append(s.Unvisited, u)
	case urldb.Skipped:
		s.Skipped = append(s.Skipped, u)
	case urldb.Errored:
		s.Errored = append(s.Errored, u)
	}
}
