package catalog

import (
	"net/url"
	"strings"
)

// URLMatcher decides whether a URL points at a catalog track detail page.
// Patterns are path globs where "*" matches exactly one path segment, e.g.
// "/track/*" matches "/track/strobe" and "/track/strobe/123" but not
// "/release/strobe".
type URLMatcher struct {
	host     string
	patterns [][]string
}

// NewURLMatcher builds a matcher restricted to the given host. An empty host
// accepts any host (used for locally stored pages).
func NewURLMatcher(host string, patterns []string) *URLMatcher {
	m := &URLMatcher{host: strings.ToLower(strings.TrimPrefix(host, "www."))}
	for _, p := range patterns {
		segs := splitPath(p)
		if len(segs) > 0 {
			m.patterns = append(m.patterns, segs)
		}
	}
	return m
}

// IsTrackURL reports whether rawURL is a track detail page on the catalog
// host.
func (m *URLMatcher) IsTrackURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if m.host != "" && u.Host != "" {
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		if host != m.host {
			return false
		}
	}
	return m.MatchesPath(u.Path)
}

// MatchesPath reports whether path matches any configured pattern.
func (m *URLMatcher) MatchesPath(path string) bool {
	segs := splitPath(path)
	for _, pat := range m.patterns {
		if matchSegments(pat, segs) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments. The path may
// have trailing segments beyond the pattern (slug/id suffixes).
func matchSegments(pattern, path []string) bool {
	if len(path) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == "*" {
			continue
		}
		if !strings.EqualFold(p, path[i]) {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
