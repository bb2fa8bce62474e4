package crawler

import (
	"fmt"
	"net/url"
	"time"
)

// Mode selects how URLs are visited.
type Mode uint8

const (
	// ModeWeb fetches URLs over HTTP.
	ModeWeb Mode = iota
	// ModeLocal reads file:// URLs from the local filesystem.
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "web"
}

// ModeFromURL returns ModeLocal for the file scheme and ModeWeb otherwise.
func ModeFromURL(u *url.URL) Mode {
	if u != nil && u.Scheme == "file" {
		return ModeLocal
	}
	return ModeWeb
}

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/amosWeiskopf/wordcrawl)"

// Options configures a single crawl run. The crawler copies it on
// construction; later changes have no effect.
type Options struct {
	URL               *url.URL      // crawl origin
	Depth             int           // number of depth rounds
	IncludeJS         bool          // follow <link as="script">
	IncludeCSS        bool          // follow <link rel="stylesheet">
	SitePolicy        SitePolicy    // host eligibility
	RequestsPerSecond int           // limiter budget
	LimitConcurrent   int           // concurrent visits per round
	UserAgent         string        // User-Agent header
	RespectRobots     bool          // skip URLs disallowed by robots.txt
	Exclude           []string      // URL globs that are skipped
	MaxBodySize       int64         // response bytes read per page
	ConnectTimeout    time.Duration // dial timeout
	Timeout           time.Duration // overall request timeout
}

// DefaultOptions returns options for crawling u with the stock settings.
func DefaultOptions(u *url.URL) Options {
	return Options{
		URL:               u,
		Depth:             1,
		SitePolicy:        SitePolicySame,
		RequestsPerSecond: 5,
		LimitConcurrent:   5,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       10 << 20,
		ConnectTimeout:    5 * time.Second,
		Timeout:           10 * time.Second,
	}
}

// Mode returns the crawl mode implied by the origin URL.
func (o Options) Mode() Mode {
	return ModeFromURL(o.URL)
}

// Validate checks the options for values the crawler cannot work with.
func (o Options) Validate() error {
	if o.URL == nil || o.URL.String() == "" {
		return fmt.Errorf("%w: missing origin url", ErrInvalidOptions)
	}
	if !o.URL.IsAbs() {
		return fmt.Errorf("%w: origin %q is not absolute", ErrInvalidOptions, o.URL)
	}
	if o.Depth < 0 {
		return fmt.Errorf("%w: negative depth %d", ErrInvalidOptions, o.Depth)
	}
	if _, ok := sitePolicyNames[o.SitePolicy]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, o.SitePolicy)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions(o.URL)
	if o.LimitConcurrent < 1 {
		o.LimitConcurrent = 1
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = d.MaxBodySize
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	o.Exclude = append([]string(nil), o.Exclude...)
	return o
}
