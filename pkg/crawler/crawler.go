// Package crawler walks a web site or a local directory tree breadth first,
// one depth round at a time, and hands every fetched document to an
// Extractor.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/semaphore"

	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

// Extractor consumes the raw bytes of fetched documents. It is called from
// many goroutines at once.
type Extractor interface {
	Extract(doc []byte)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(doc []byte)

// Extract calls f(doc).
func (f ExtractorFunc) Extract(doc []byte) { f(doc) }

// Option configures a Crawler.
type Option func(*Crawler)

// WithClient sets the HTTP client used for web crawls.
func WithClient(client *http.Client) Option {
	return func(c *Crawler) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// Crawler drives depth rounds over a shared URL store.
type Crawler struct {
	opts      Options
	urls      *urldb.DB
	extractor Extractor
	client    *http.Client
	limiter   *Limiter
	robots    *robotsCache
	exclude   []glob.Glob
	logger    *slog.Logger
	jitter    func() time.Duration
	depth     int
}

// New builds a crawler for opts over urls and records the origin as
// unvisited unless it is already known. Every error returned is fatal for
// the run.
func New(opts Options, urls *urldb.DB, extractor Extractor, options ...Option) (*Crawler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if urls == nil {
		return nil, fmt.Errorf("%w: nil url store", ErrInvalidOptions)
	}
	opts = opts.withDefaults()

	limiter, err := NewLimiter(opts.RequestsPerSecond)
	if err != nil {
		return nil, err
	}

	exclude := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidOptions, pattern, err)
		}
		exclude = append(exclude, g)
	}

	if extractor == nil {
		extractor = ExtractorFunc(func([]byte) {})
	}

	c := &Crawler{
		opts:      opts,
		urls:      urls,
		extractor: extractor,
		limiter:   limiter,
		exclude:   exclude,
		jitter:    func() time.Duration { return utils.Jitter(20, 120) },
	}
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.client == nil {
		c.client, err = newHTTPClient(opts)
		if err != nil {
			return nil, err
		}
	}
	if opts.RespectRobots && opts.Mode() == ModeWeb {
		c.robots = newRobotsCache(c.client, opts.UserAgent)
	}

	urls.CondMarkUnvisited(OriginKey(opts.URL))
	return c, nil
}

// OriginKey returns the URL store key of a crawl origin. A web origin
// without a path gets the root path, as links back to it resolve that way.
func OriginKey(u *url.URL) string {
	if u.Host != "" && u.Path == "" && u.Opaque == "" {
		root := *u
		root.Path = "/"
		return root.String()
	}
	return u.String()
}

func newHTTPClient(opts Options) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: max(opts.LimitConcurrent, 2),
		IdleConnTimeout:     30 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: opts.Timeout, Jar: jar}, nil
}

// SetDepth forces the current depth, e.g. to continue a resumed crawl.
func (c *Crawler) SetDepth(depth int) {
	c.depth = depth
}

// Depth returns the current depth.
func (c *Crawler) Depth() int {
	return c.depth
}

// Crawl runs depth rounds until the depth limit is reached, no candidate
// URLs remain or ctx is cancelled, and returns the depth reached. A round
// interrupted by cancellation does not count.
func (c *Crawler) Crawl(ctx context.Context) int {
	gate := semaphore.NewWeighted(int64(c.opts.LimitConcurrent))

	for c.depth < c.opts.Depth {
		if c.urls.NumStaged() < 1 {
			c.urls.StageUnvisited()
		}
		staged := c.urls.Staged()
		if len(staged) == 0 {
			c.logger.Info("candidate urls exhausted", "depth", c.depth)
			break
		}

		c.logger.Info("crawling at depth", "depth", c.depth, "staged", len(staged))
		interrupted := c.round(ctx, gate, staged)
		if interrupted || ctx.Err() != nil {
			c.logger.Info("shutdown early", "depth", c.depth)
			break
		}
		c.depth++
	}
	return c.depth
}

// round dispatches one task per staged URL and waits for all of them. It
// reports whether dispatch stopped because ctx was cancelled.
func (c *Crawler) round(ctx context.Context, gate *semaphore.Weighted, staged []string) bool {
	var wg sync.WaitGroup
	interrupted := false

	for _, raw := range staged {
		if err := c.limiter.Wait(ctx); err != nil {
			interrupted = true
			break
		}

		wg.Add(1)
		go func(raw string) {
			defer wg.Done()
			if err := gate.Acquire(ctx, 1); err != nil {
				return
			}
			defer gate.Release(1)

			doc, err := c.newSpider().crawlURL(ctx, raw)
			if err != nil {
				return
			}
			if doc != nil {
				c.extractor.Extract(doc)
			}
		}(raw)
	}

	wg.Wait()
	return interrupted
}

func (c *Crawler) newSpider() *spider {
	return &spider{
		opts:    c.opts,
		urls:    c.urls,
		client:  c.client,
		robots:  c.robots,
		exclude: c.exclude,
		logger:  c.logger,
		jitter:  c.jitter,
	}
}
