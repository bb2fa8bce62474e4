package crawler

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// robotsCache fetches robots.txt once per origin and answers whether a URL
// may be visited. Origins whose robots.txt cannot be fetched allow
// everything.
type robotsCache struct {
	client *http.Client
	agent  string

	mu       sync.Mutex
	byOrigin map[string]*robotstxt.RobotsData
	flight   singleflight.Group
}

func newRobotsCache(client *http.Client, agent string) *robotsCache {
	return &robotsCache{
		client:   client,
		agent:    agent,
		byOrigin: make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether u may be fetched under its origin's robots.txt.
func (rc *robotsCache) Allowed(ctx context.Context, u *url.URL) bool {
	origin := u.Scheme + "://" + u.Host

	rc.mu.Lock()
	robots, ok := rc.byOrigin[origin]
	rc.mu.Unlock()

	if !ok {
		v, _, _ := rc.flight.Do(origin, func() (any, error) {
			data := rc.fetch(ctx, origin)
			if ctx.Err() == nil {
				rc.mu.Lock()
				rc.byOrigin[origin] = data
				rc.mu.Unlock()
			}
			return data, nil
		})
		robots, _ = v.(*robotstxt.RobotsData)
	}
	if robots == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return robots.TestAgent(path, rc.agent)
}

func (rc *robotsCache) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.agent)
	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}
