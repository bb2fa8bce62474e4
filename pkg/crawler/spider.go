package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/gobwas/glob"
	whatwg "github.com/nlnwa/whatwg-url/url"

	"github.com/amosWeiskopf/wordcrawl/pkg/urldb"
	"github.com/amosWeiskopf/wordcrawl/pkg/utils"
)

var hrefParser = whatwg.NewParser(whatwg.WithPercentEncodeSinglePercentSign())

// spider visits a single URL. Statuses are always written against the key
// the URL was staged under.
type spider struct {
	opts    Options
	urls    *urldb.DB
	client  *http.Client
	robots  *robotsCache
	exclude []glob.Glob
	logger  *slog.Logger
	jitter  func() time.Duration
}

// crawlURL visits raw and returns the document bytes, if any. A nil error
// with a nil document means the URL produced nothing to extract (skipped,
// directory). ErrEarlyTermination means the visit was abandoned without
// touching the URL store.
func (s *spider) crawlURL(ctx context.Context, raw string) ([]byte, error) {
	timer := time.NewTimer(s.jitter())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		return nil, ErrEarlyTermination
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		s.logger.Debug("not a url", "url", raw, "error", err)
		s.urls.MarkErrored(raw)
		return nil, fmt.Errorf("parse %q: not an absolute url", raw)
	}

	if s.excluded(raw) {
		s.logger.Debug("excluded url, skipping", "url", raw)
		s.urls.MarkSkipped(raw)
		return nil, nil
	}

	if s.opts.Mode() == ModeLocal {
		return s.crawlLocal(raw, u)
	}
	return s.crawlWeb(ctx, raw, u)
}

func (s *spider) excluded(raw string) bool {
	for _, g := range s.exclude {
		if g.Match(raw) {
			return true
		}
	}
	return false
}

func (s *spider) crawlWeb(ctx context.Context, raw string, u *url.URL) ([]byte, error) {
	if !s.opts.SitePolicy.Matches(s.opts.URL, u) {
		s.logger.Debug("site policy violated, skipping", "policy", s.opts.SitePolicy, "url", raw)
		s.urls.MarkSkipped(raw)
		return nil, nil
	}
	if s.robots != nil && !s.robots.Allowed(ctx, u) {
		s.logger.Debug("disallowed by robots.txt, skipping", "url", raw)
		s.urls.MarkSkipped(raw)
		return nil, nil
	}

	s.logger.Debug("visiting", "url", raw)
	doc, base, err := s.fetch(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrEarlyTermination
		}
		s.urls.MarkErrored(raw)
		s.logger.Warn("error fetching page", "url", raw, "error", err)
		return nil, err
	}

	s.urls.MarkVisited(raw)
	s.discover(base, doc)
	return doc, nil
}

// fetch returns the decoded body of raw and the URL it was finally served
// from after redirects. Only transport and body read errors fail; a page
// served with an error status is still a page.
func (s *spider) fetch(ctx context.Context, raw string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		s.logger.Debug("wait and retry on 429 not implemented", "url", raw)
	case resp.StatusCode >= http.StatusBadRequest:
		s.logger.Debug("error status, extracting body anyway", "url", raw, "status", resp.StatusCode)
	}

	body, err := s.readBody(resp)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return body, resp.Request.URL.String(), nil
}

func (s *spider) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, s.opts.MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > s.opts.MaxBodySize {
		s.logger.Debug("body truncated", "url", resp.Request.URL.String(), "limit", s.opts.MaxBodySize)
		body = body[:s.opts.MaxBodySize]
	}
	return body, nil
}

// discover records every eligible href of doc as unvisited, unless the
// resolved URL is already known.
func (s *spider) discover(base string, doc []byte) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		s.logger.Debug("cannot parse document for links", "url", base, "error", err)
		return
	}
	if href, ok := page.Find("base[href]").First().Attr("href"); ok {
		if resolved, ok := resolveHref(base, href); ok {
			base = resolved
		}
	}

	page.Find("[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target, ok := resolveHref(base, href)
		if !ok {
			return
		}
		switch goquery.NodeName(sel) {
		case "a":
			s.urls.CondMarkUnvisited(target)
		case "link":
			rel, _ := sel.Attr("rel")
			as, _ := sel.Attr("as")
			if s.opts.IncludeCSS && hasToken(rel, "stylesheet") {
				s.urls.CondMarkUnvisited(target)
			}
			if s.opts.IncludeJS && strings.EqualFold(strings.TrimSpace(as), "script") {
				s.urls.CondMarkUnvisited(target)
			}
		}
	})
}

// resolveHref resolves href against base. Empty hrefs and bare fragments
// are ignored; fragments are dropped from the result.
func resolveHref(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := hrefParser.ParseRef(base, href)
	if err != nil {
		return "", false
	}
	resolved := u.Href(true)
	return resolved, resolved != ""
}

func hasToken(list, token string) bool {
	for _, field := range strings.Fields(list) {
		if strings.EqualFold(field, token) {
			return true
		}
	}
	return false
}

func (s *spider) crawlLocal(raw string, u *url.URL) ([]byte, error) {
	path, err := utils.PathFromURL(u)
	if err != nil {
		s.urls.MarkErrored(raw)
		s.logger.Warn("error resolving path", "url", raw, "error", err)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		s.urls.MarkErrored(raw)
		s.logger.Warn("error getting path metadata", "path", path, "error", err)
		return nil, err
	}

	switch {
	case info.Mode().IsRegular():
		doc, err := os.ReadFile(path)
		if err != nil {
			s.urls.MarkErrored(raw)
			s.logger.Warn("error reading file", "path", path, "error", err)
			return nil, err
		}
		s.urls.MarkVisited(raw)
		return doc, nil
	case info.IsDir():
		return nil, s.crawlDir(raw, path)
	default:
		s.logger.Debug("not a file or directory, skipping", "path", path)
		s.urls.MarkSkipped(raw)
		return nil, nil
	}
}

// crawlDir records the children of dir. The directory is marked visited
// after every recorded child, and once at the end if none was recorded.
func (s *spider) crawlDir(raw, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.urls.MarkErrored(raw)
		s.logger.Warn("error reading directory", "path", dir, "error", err)
		return err
	}

	recorded := 0
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		cu, err := utils.URLFromPath(child)
		if err != nil {
			s.logger.Warn("error converting path to url", "path", child, "error", err)
			continue
		}
		s.urls.CondMarkUnvisited(cu.String())
		s.urls.MarkVisited(raw)
		recorded++
	}
	if recorded == 0 {
		s.urls.MarkVisited(raw)
	}
	return nil
}
