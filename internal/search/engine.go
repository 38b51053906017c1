// Package search executes the per-query discovery chain: structured endpoint,
// search-page scrape, rendered-page fallback, web-search last resort. Each
// step's results are cached by normalized query and method; the chain degrades
// to an empty locator list rather than failing a query.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cratedigger/trackmatch/internal/cache"
	"github.com/cratedigger/trackmatch/internal/catalog"
	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
	"github.com/cratedigger/trackmatch/internal/norm"
	"github.com/cratedigger/trackmatch/internal/resilience"
	"github.com/cratedigger/trackmatch/pkg/websearch"
)

// Renderer fetches a URL through a headless browser. pkg/render.Client
// implements it.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// WebSearcher runs a general web search. pkg/websearch.Client implements it.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
}

// Engine runs the fallback chain for one query at a time. Safe for concurrent
// use; the URL cache is the only shared state.
type Engine struct {
	client  *catalog.Client
	matcher *catalog.URLMatcher

	renderer Renderer // nil disables the rendered fallback
	web      WebSearcher
	breaker  *resilience.Breaker

	urls   *cache.Cache[[]string] // key: normalized query + "|" + method
	policy resilience.Policy
	cfg    config.SearchConfig
}

// NewEngine creates an Engine. renderer and web may be nil to disable those
// strategies.
func NewEngine(client *catalog.Client, matcher *catalog.URLMatcher, renderer Renderer, web WebSearcher, cfg config.SearchConfig, ttl time.Duration) *Engine {
	return &Engine{
		client:   client,
		matcher:  matcher,
		renderer: renderer,
		web:      web,
		breaker:  resilience.NewBreaker("render", 3, 30*time.Second),
		urls:     cache.New[[]string](ttl),
		policy:   resilience.DefaultPolicy(),
		cfg:      cfg,
	}
}

// Search runs the chain for q and returns locators in discovery order,
// deduplicated by URL and capped at MaxResults. Total failure of every
// strategy yields an empty list, never an error.
func (e *Engine) Search(ctx context.Context, q model.SearchQuery) []model.CandidateLocator {
	seen := make(map[string]bool)
	var locators []model.CandidateLocator

	add := func(urls []string, method model.DiscoveryMethod) {
		for _, u := range urls {
			if seen[u] || len(locators) >= e.cfg.MaxResults {
				continue
			}
			seen[u] = true
			locators = append(locators, model.CandidateLocator{
				URL:              u,
				SourceQueryIndex: q.QueryIndex,
				CandidateIndex:   len(locators),
				Method:           method,
			})
		}
	}

	blocked := false
	note := func(method model.DiscoveryMethod, err error) {
		var be *catalog.BlockError
		if errors.As(err, &be) {
			blocked = true
		}
		zap.L().Debug("search strategy failed",
			zap.String("query", q.Text),
			zap.String("method", string(method)),
			zap.Error(err),
		)
	}

	// 1. Structured endpoint.
	urls, err := e.endpointURLs(ctx, q.Text)
	if err != nil {
		note(model.DiscoveryEndpoint, err)
	}
	add(urls, model.DiscoveryEndpoint)

	// 2. Search-page scrape, when the endpoint came up empty.
	if len(locators) == 0 && ctx.Err() == nil {
		urls, err = e.scrapeURLs(ctx, q.Text)
		if err != nil {
			note(model.DiscoveryScrape, err)
		}
		add(urls, model.DiscoveryScrape)
	}

	// 3. Rendered fallback: remix-flagged queries, thin results, or a block.
	if e.renderer != nil && ctx.Err() == nil &&
		(e.cfg.AlwaysRender || q.MixVariant || blocked || len(locators) < e.cfg.MinResultsBeforeRender) &&
		e.breaker.Allow() {
		urls, err = e.renderURLs(ctx, q.Text)
		if err != nil {
			e.breaker.Failure()
			note(model.DiscoveryRender, err)
		} else {
			e.breaker.Success()
			add(urls, model.DiscoveryRender)
		}
	}

	// 4. Web-search discovery, last resort.
	if e.web != nil && len(locators) == 0 && ctx.Err() == nil {
		urls, err = e.webSearchURLs(ctx, q.Text)
		if err != nil {
			note(model.DiscoveryWebSearch, err)
		}
		add(urls, model.DiscoveryWebSearch)
	}

	return locators
}

func (e *Engine) cached(ctx context.Context, queryText string, method model.DiscoveryMethod, fetch func(ctx context.Context) ([]string, error)) ([]string, error) {
	key := norm.Clean(queryText) + "|" + string(method)
	return e.urls.GetOrFetch(ctx, key, func(ctx context.Context) ([]string, error) {
		policy := e.policy
		policy.OnRetry = resilience.RetryLogger("search", string(method))
		return resilience.Do(ctx, policy, fetch)
	})
}

func (e *Engine) endpointURLs(ctx context.Context, queryText string) ([]string, error) {
	return e.cached(ctx, queryText, model.DiscoveryEndpoint, func(ctx context.Context) ([]string, error) {
		refs, err := e.client.SearchEndpoint(ctx, queryText, e.cfg.MaxResults)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(refs))
		for _, r := range refs {
			urls = append(urls, r.URL)
		}
		return urls, nil
	})
}

func (e *Engine) scrapeURLs(ctx context.Context, queryText string) ([]string, error) {
	return e.cached(ctx, queryText, model.DiscoveryScrape, func(ctx context.Context) ([]string, error) {
		body, err := e.client.FetchSearchPage(ctx, queryText)
		if err != nil {
			return nil, err
		}
		return catalog.ExtractTrackLinks(body, e.client.BaseURL(), e.matcher)
	})
}

// renderURLs fetches the search page through the headless backend and re-runs
// the scrape extraction on the rendered DOM.
func (e *Engine) renderURLs(ctx context.Context, queryText string) ([]string, error) {
	return e.cached(ctx, queryText, model.DiscoveryRender, func(ctx context.Context) ([]string, error) {
		body, err := e.renderer.Render(ctx, e.client.SearchPageURL(queryText))
		if err != nil {
			return nil, err
		}
		return catalog.ExtractTrackLinks(body, e.client.BaseURL(), e.matcher)
	})
}

// webSearchURLs asks the web-search provider for catalog track pages matching
// the query and keeps only result URLs on the track path pattern.
func (e *Engine) webSearchURLs(ctx context.Context, queryText string) ([]string, error) {
	return e.cached(ctx, queryText, model.DiscoveryWebSearch, func(ctx context.Context) ([]string, error) {
		host := e.client.BaseURL().Hostname()
		scoped := "site:" + strings.TrimPrefix(host, "www.") + " " + queryText

		results, err := e.web.Search(ctx, scoped, e.cfg.MaxResults)
		if err != nil {
			return nil, err
		}

		var urls []string
		for _, r := range results {
			if e.matcher.IsTrackURL(r.URL) {
				urls = append(urls, r.URL)
			}
		}
		return urls, nil
	})
}
