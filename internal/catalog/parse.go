package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseError reports a page or payload that could not be interpreted. The
// pipeline logs these and skips the candidate; they are never retried.
type ParseError struct {
	URL   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("catalog: parse %s: %s", e.URL, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractTrackLinks pulls track detail URLs out of a search-results page, in
// document order, deduplicated and resolved against base. When the page ships
// a hydration payload, links found there are appended after the anchor links.
func ExtractTrackLinks(body []byte, base *url.URL, matcher *URLMatcher) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: base.String(), Field: "search page html", Err: err}
	}

	seen := make(map[string]bool)
	var links []string
	add := func(raw string) {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.String() == "" {
			return
		}
		resolved := base.ResolveReference(u)
		resolved.Fragment = ""
		resolved.RawQuery = ""
		s := resolved.String()
		if !matcher.IsTrackURL(s) || seen[s] {
			return
		}
		seen[s] = true
		links = append(links, s)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			add(href)
		}
	})

	for _, u := range extractHydrationLinks(doc, base) {
		add(u)
	}

	return links, nil
}

// extractHydrationLinks walks the page's embedded JSON state looking for
// objects shaped like track records (slug + numeric id + a name field) and
// reconstructs their detail URLs.
func extractHydrationLinks(doc *goquery.Document, base *url.URL) []string {
	var payload []byte
	doc.Find("script#__NEXT_DATA__, script[type='application/json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 2 && text[0] == '{' {
			payload = []byte(text)
			return false
		}
		return true
	})
	if payload == nil {
		return nil
	}

	var root any
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil
	}

	var links []string
	walkHydration(root, func(slug string, id float64) {
		u := *base
		u.Path = fmt.Sprintf("/track/%s/%d", slug, int64(id))
		links = append(links, u.String())
	})
	return links
}

// walkHydration recurses through the decoded JSON in deterministic order,
// emitting every object that looks like a track record.
func walkHydration(v any, emit func(slug string, id float64)) {
	switch node := v.(type) {
	case map[string]any:
		slug, hasSlug := node["slug"].(string)
		id, hasID := node["id"].(float64)
		_, hasName := node["name"].(string)
		_, hasMix := node["mix_name"].(string)
		if hasSlug && hasID && (hasName || hasMix) {
			emit(slug, id)
		}

		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkHydration(node[k], emit)
		}
	case []any:
		for _, item := range node {
			walkHydration(item, emit)
		}
	}
}
