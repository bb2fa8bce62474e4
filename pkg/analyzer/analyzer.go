// Package analyzer turns a crawl snapshot and its dictionary into a
// summary for reporting.
package analyzer

import (
	"errors"
	"net/url"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/amosWeiskopf/wordcrawl/internal/models"
	"github.com/amosWeiskopf/wordcrawl/pkg/state"
	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

// ErrNoState is returned when there is nothing to analyze.
var ErrNoState = errors.New("analyzer: no crawl state")

// Analyzer builds crawl summaries
type Analyzer struct {
	config *Config
	now    func() time.Time
}

// Config holds analyzer configuration
type Config struct {
	// TopHosts caps the host breakdown; 0 keeps every host.
	TopHosts int
	// IncludeURLs lists the URLs of every status, not just the counts.
	IncludeURLs bool
}

// New creates an Analyzer listing the ten busiest hosts and every URL.
func New() *Analyzer {
	return NewWithConfig(&Config{TopHosts: 10, IncludeURLs: true})
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(config *Config) *Analyzer {
	if config == nil {
		config = &Config{}
	}
	return &Analyzer{config: config, now: time.Now}
}

// Analyze summarizes st and the sorted dictionary words.
func (a *Analyzer) Analyze(st *state.State, words []string) (*models.Summary, error) {
	if st == nil {
		return nil, ErrNoState
	}

	summary := &models.Summary{
		StartingURL:  st.StartingURL,
		DepthReached: st.DepthReached,
		GeneratedAt:  a.now().UTC(),
		TotalURLs:    st.Len(),
	}

	lists := map[urldb.Status][]string{
		urldb.Visited:   st.Visited,
		urldb.Staged:    st.Staged,
		urldb.Unvisited: st.Unvisited,
		urldb.Skipped:   st.Skipped,
		urldb.Errored:   st.Errored,
	}
	hosts := make(map[string]int)
	for _, status := range urldb.Statuses {
		urls := lists[status]
		sc := models.StatusCount{Status: status.String(), Count: len(urls)}
		if a.config.IncludeURLs && len(urls) > 0 {
			sc.URLs = append([]string(nil), urls...)
			sort.Strings(sc.URLs)
		}
		summary.Statuses = append(summary.Statuses, sc)

		for _, u := range urls {
			hosts[hostKey(u)]++
		}
	}

	summary.TopHosts = a.topHosts(hosts)
	summary.Words = wordStats(words)
	return summary, nil
}

// hostKey groups URLs without a host (files, mailto) by scheme.
func hostKey(raw string) string {
	if host := utils.GetDomainFromURL(raw); host != "" {
		return host
	}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return u.Scheme + ":"
	}
	return "(invalid)"
}

func (a *Analyzer) topHosts(hosts map[string]int) []models.HostCount {
	counts := make([]models.HostCount, 0, len(hosts))
	for host, n := range hosts {
		counts = append(counts, models.HostCount{Host: host, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Host < counts[j].Host
	})
	if a.config.TopHosts > 0 && len(counts) > a.config.TopHosts {
		counts = counts[:a.config.TopHosts]
	}
	return counts
}

func wordStats(words []string) models.WordStats {
	stats := models.WordStats{Unique: len(words), Lengths: []models.LengthBucket{}}
	if len(words) == 0 {
		return stats
	}

	byLength := make(map[int]int)
	total, longest := 0, 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		byLength[n]++
		total += n
		if n > longest {
			longest = n
			stats.Longest = w
		}
	}
	for length, count := range byLength {
		stats.Lengths = append(stats.Lengths, models.LengthBucket{Length: length, Count: count})
	}
	sort.Slice(stats.Lengths, func(i, j int) bool {
		return stats.Lengths[i].Length < stats.Lengths[j].Length
	})
	stats.AverageLength = float64(total) / float64(len(words))
	return stats
}
