// Package state snapshots a crawl so it can be resumed later.
package state

import (
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/amosWeiskopf/wordcrawl/pkg/crawler"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
)

// Settings holds every tunable option of a run.
type Settings struct {
	SitePolicy        crawler.SitePolicy     `json:"sitePolicy" yaml:"sitePolicy"`
	Filters           []extractor.FilterMode `json:"filters" yaml:"filters"`
	Depth             int                    `json:"depth" yaml:"depth"`
	IncludeJS         bool                   `json:"includeJs" yaml:"includeJs"`
	IncludeCSS        bool                   `json:"includeCss" yaml:"includeCss"`
	MinWordLength     int                    `json:"minWordLength" yaml:"minWordLength"`
	MaxWordLength     int                    `json:"maxWordLength" yaml:"maxWordLength"`
	RequestsPerSecond int                    `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	LimitConcurrent   int                    `json:"limitConcurrent" yaml:"limitConcurrent"`
}

// DefaultSettings returns the stock options.
func DefaultSettings() Settings {
	return Settings{
		SitePolicy:        crawler.SitePolicySame,
		Filters:           []extractor.FilterMode{extractor.FilterNone},
		Depth:             1,
		MinWordLength:     3,
		MaxWordLength:     math.MaxInt,
		RequestsPerSecond: 5,
		LimitConcurrent:   5,
	}
}

// Validate checks s for values a crawl cannot run with.
func (s Settings) Validate() error {
	if _, err := s.SitePolicy.MarshalText(); err != nil {
		return err
	}
	for _, f := range s.Filters {
		if _, err := f.MarshalText(); err != nil {
			return err
		}
	}
	switch {
	case s.Depth < 0:
		return errors.New("depth must not be negative")
	case s.LimitConcurrent < 1:
		return errors.New("limitConcurrent must be at least 1")
	case s.RequestsPerSecond < 0 || s.RequestsPerSecond > crawler.MaxRequestsPerSecond:
		return fmt.Errorf("requestsPerSecond must be between 0 and %d", crawler.MaxRequestsPerSecond)
	case s.MinWordLength < 0:
		return errors.New("minWordLength must not be negative")
	case s.MaxWordLength < s.MinWordLength:
		return fmt.Errorf("maxWordLength %d is below minWordLength %d", s.MaxWordLength, s.MinWordLength)
	}
	return nil
}

func (s Settings) clone() Settings {
	s.Filters = append([]extractor.FilterMode(nil), s.Filters...)
	return s
}

// State is a resumable snapshot of a crawl: the origin, the depth reached,
// the URL store partitioned by status and the settings that produced it.
type State struct {
	StartingURL  string   `json:"startingUrl" yaml:"startingUrl"`
	DepthReached int      `json:"depthReached" yaml:"depthReached"`
	Visited      []string `json:"visited" yaml:"visited"`
	Staged       []string `json:"staged" yaml:"staged"`
	Unvisited    []string `json:"unvisited" yaml:"unvisited"`
	Skipped      []string `json:"skipped" yaml:"skipped"`
	Errored      []string `json:"errored" yaml:"errored"`
	Settings     `yaml:",inline"`
}

// New returns an empty state for startingURL with default settings.
func New(startingURL string) *State {
	return &State{StartingURL: startingURL, Settings: DefaultSettings()}
}

// Capture snapshots db.
func Capture(startingURL string, depthReached int, db *urldb.DB, settings Settings) *State {
	return &State{
		StartingURL:  startingURL,
		DepthReached: depthReached,
		Visited:      db.Visited(),
		Staged:       db.Staged(),
		Unvisited:    db.Unvisited(),
		Skipped:      db.Skipped(),
		Errored:      db.Errored(),
		Settings:     settings.clone(),
	}
}

// Restore moves every URL of s into db with its recorded status, leaving
// the lists of s empty, and returns the depth to resume from.
func (s *State) Restore(db *urldb.DB) int {
	for _, part := range s.partitions() {
		for _, u := range part.urls {
			db.Mark(u, part.status)
		}
	}
	s.Visited, s.Staged, s.Unvisited, s.Skipped, s.Errored = nil, nil, nil, nil, nil
	return s.DepthReached
}

// Validate checks that s names an absolute starting URL, a depth and
// usable settings.
func (s *State) Validate() error {
	u, err := url.Parse(s.StartingURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("startingUrl %q is not an absolute url", s.StartingURL)
	}
	if s.DepthReached < 0 {
		return errors.New("depthReached must not be negative")
	}
	return s.Settings.Validate()
}

// Len returns the number of URLs held by s.
func (s *State) Len() int {
	return len(s.Visited) + len(s.Staged) + len(s.Unvisited) + len(s.Skipped) + len(s.Errored)
}

// Merge returns the settings a resumed run uses. A plain resume keeps the
// current settings; a strict resume replaces them with the persisted ones.
func Merge(persisted *State, current Settings, strict bool) Settings {
	if strict && persisted != nil {
		return persisted.Settings.clone()
	}
	return current.clone()
}
