package crawler

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SitePolicy decides which discovered URLs are eligible for visiting based
// on how their host relates to the crawl origin.
type SitePolicy uint8

const (
	// SitePolicySame admits only the exact origin host.
	SitePolicySame SitePolicy = iota
	// SitePolicySubdomain admits the origin host and its subdomains.
	SitePolicySubdomain
	// SitePolicySibling admits every host under the same registrable domain.
	SitePolicySibling
	// SitePolicyAll admits any URL with a host.
	SitePolicyAll
)

var sitePolicyNames = map[SitePolicy]string{
	SitePolicySame:      "same",
	SitePolicySubdomain: "subdomain",
	SitePolicySibling:   "sibling",
	SitePolicyAll:       "all",
}

func (p SitePolicy) String() string {
	if name, ok := sitePolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("sitepolicy(%d)", uint8(p))
}

// ParseSitePolicy parses a policy name, case insensitively.
func ParseSitePolicy(s string) (SitePolicy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range sitePolicyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown site policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p SitePolicy) MarshalText() ([]byte, error) {
	if _, ok := sitePolicyNames[p]; !ok {
		return nil, fmt.Errorf("unknown site policy %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SitePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseSitePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Matches reports whether target may be visited from a crawl rooted at
// source. URLs without a host never match.
func (p SitePolicy) Matches(source, target *url.URL) bool {
	if source == nil || target == nil {
		return false
	}
	th := strings.ToLower(target.Hostname())
	if th == "" {
		return false
	}
	sh := strings.ToLower(source.Hostname())

	switch p {
	case SitePolicySame:
		return th == sh
	case SitePolicySubdomain:
		return sh != "" && (th == sh || strings.HasSuffix(th, "."+sh))
	case SitePolicySibling:
		td, ok := registrableDomain(th)
		if !ok {
			return false
		}
		sd, ok := registrableDomain(sh)
		return ok && td == sd
	case SitePolicyAll:
		return true
	default:
		return false
	}
}

// registrableDomain returns the eTLD+1 of host. An IP address is its own
// domain. Hosts without one, such as "localhost" or a bare public suffix,
// report false.
func registrableDomain(host string) (string, bool) {
	if host == "" {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, true
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
