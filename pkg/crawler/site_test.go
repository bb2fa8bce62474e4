package crawler

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qs    = "/a/b?c=d&e=f"
	qsTgt = "/a/b/c?d=e#bar"
)

type hostPair struct {
	src, tgt string
}

// hostPairs is shared by every policy table below; the expected columns
// line up with it index by index.
var hostPairs = []hostPair{
	{"https://www.example.com", "https://www.example.com"},
	{"https://example.com", "https://example.com"},
	{"https://example.com" + qs, "https://example.com" + qsTgt},
	{"https://foo.bar.example.com", "https://foo.bar.example.com"},
	{"https://foo.bar.example.com" + qs, "https://foo.bar.example.com" + qsTgt},
	{"https://example.com", "https://www.example.com"},
	{"https://bar.example.com", "https://foo.bar.example.com"},
	{"https://example.com", "https://abc.example.com"},
	{"https://example.com" + qs, "https://abc.example.com" + qsTgt},
	{"https://www.example.com", "https://example.com"},
	{"https://foo.bar.example.com", "https://bar.example.com"},
	{"https://abc.example.com", "https://example.com"},
	{"https://foo.bar.example.com", "https://abc.example.com"},
	{"https://foo.bar.example.com" + qs, "https://abc.example.com" + qsTgt},
	{"https://foo.bar.example.com", "https://abc.example.co.uk"},
	{"https://foo.bar.example.com" + qs, "https://abc.example.co.uk" + qsTgt},
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSitePolicyMatches(t *testing.T) {
	const T, F = true, false
	tests := []struct {
		policy SitePolicy
		want   []bool
	}{
		{SitePolicySame, []bool{T, T, T, T, T, F, F, F, F, F, F, F, F, F, F, F}},
		{SitePolicySubdomain, []bool{T, T, T, T, T, T, T, T, T, F, F, F, F, F, F, F}},
		{SitePolicySibling, []bool{T, T, T, T, T, T, T, T, T, T, T, T, T, T, F, F}},
		{SitePolicyAll, []bool{T, T, T, T, T, T, T, T, T, T, T, T, T, T, T, T}},
	}

	for _, tt := range tests {
		require.Len(t, tt.want, len(hostPairs))
		for i, pair := range hostPairs {
			got := tt.policy.Matches(mustParse(t, pair.src), mustParse(t, pair.tgt))
			assert.Equal(t, tt.want[i], got, "%s #%d: %s -> %s", tt.policy, i, pair.src, pair.tgt)
		}
	}
}

func TestSitePolicyRejectsHostless(t *testing.T) {
	src := mustParse(t, "https://a.com")
	targets := []string{"mailto:a@b.com", "javascript:void(0)", "data:text/plain,hi", "file:///etc/passwd"}

	for _, p := range []SitePolicy{SitePolicySame, SitePolicySubdomain, SitePolicySibling, SitePolicyAll} {
		for _, raw := range targets {
			assert.False(t, p.Matches(src, mustParse(t, raw)), "%s %s", p, raw)
		}
	}
}

func TestSitePolicyEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		policy SitePolicy
		src    string
		tgt    string
		want   bool
	}{
		{"same ignores path", SitePolicySame, "https://a.com/x", "https://a.com/y", true},
		{"same host case", SitePolicySame, "https://A.com", "https://a.COM/x", true},
		{"same ignores port", SitePolicySame, "http://127.0.0.1:8080", "http://127.0.0.1:9090/", true},
		{"subdomain needs dot", SitePolicySubdomain, "https://a.com", "https://evila.com", false},
		{"sibling same ip", SitePolicySibling, "http://127.0.0.1:1", "http://127.0.0.1:2", true},
		{"sibling other ip", SitePolicySibling, "http://127.0.0.1", "http://127.0.0.2", false},
		{"sibling localhost", SitePolicySibling, "http://localhost:1", "http://localhost:2", false},
		{"sibling bare suffix", SitePolicySibling, "https://co.uk", "https://co.uk/x", false},
		{"sibling suffix under domain", SitePolicySibling, "https://example.co.uk", "https://co.uk", false},
		{"same localhost", SitePolicySame, "http://localhost:1", "http://localhost:2/", true},
		{"sibling different tld", SitePolicySibling, "https://x.example.com", "https://y.example.org", false},
		{"unknown policy", SitePolicy(9), "https://a.com", "https://a.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Matches(mustParse(t, tt.src), mustParse(t, tt.tgt)))
		})
	}
}

func TestSitePolicyText(t *testing.T) {
	for p, name := range sitePolicyNames {
		parsed, err := ParseSitePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	p, err := ParseSitePolicy(" Sibling ")
	require.NoError(t, err)
	assert.Equal(t, SitePolicySibling, p)

	_, err = ParseSitePolicy("nearby")
	assert.Error(t, err)

	var wrapper struct {
		Policy SitePolicy `json:"sitePolicy"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sitePolicy":"subdomain"}`), &wrapper))
	assert.Equal(t, SitePolicySubdomain, wrapper.Policy)

	out, err := json.Marshal(wrapper)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sitePolicy":"subdomain"}`, string(out))

	_, err = SitePolicy(9).MarshalText()
	assert.Error(t, err)
}
