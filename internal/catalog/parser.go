package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cratedigger/trackmatch/internal/cache"
	"github.com/cratedigger/trackmatch/internal/model"
	"github.com/cratedigger/trackmatch/internal/resilience"
)

// Parser turns candidate locators into parsed candidates. Parsed candidates
// are cached in memory by URL, and raw page bodies persist in the sqlite page
// store when one is configured, so the same detail page is fetched at most
// once per TTL no matter how many queries discover it.
type Parser struct {
	client *Client
	pages  *cache.PageStore // nil disables persistence
	parsed *cache.Cache[*model.Candidate]
	policy resilience.Policy
	ttl    time.Duration
}

// NewParser creates a Parser. pages may be nil.
func NewParser(client *Client, pages *cache.PageStore, ttl time.Duration) *Parser {
	return &Parser{
		client: client,
		pages:  pages,
		parsed: cache.New[*model.Candidate](ttl),
		policy: resilience.DefaultPolicy(),
		ttl:    ttl,
	}
}

// Parse fetches and parses the detail page behind loc. The returned candidate
// carries loc so scoring can attribute it to the query that discovered it.
// Concurrent calls for the same URL share one fetch.
func (p *Parser) Parse(ctx context.Context, loc model.CandidateLocator) (*model.Candidate, error) {
	cand, err := p.parsed.GetOrFetch(ctx, loc.URL, func(ctx context.Context) (*model.Candidate, error) {
		body, err := p.fetchPage(ctx, loc.URL)
		if err != nil {
			return nil, err
		}
		return ParseTrackPage(body, loc.URL)
	})
	if err != nil {
		return nil, err
	}

	// The cached candidate keeps a zero locator; each caller gets its own copy
	// tagged with the locator that discovered it.
	out := *cand
	out.Locator = loc
	return &out, nil
}

func (p *Parser) fetchPage(ctx context.Context, url string) ([]byte, error) {
	if p.pages != nil {
		if body, err := p.pages.Get(ctx, url); err != nil {
			zap.L().Warn("page cache read failed", zap.String("url", url), zap.Error(err))
		} else if body != nil {
			return body, nil
		}
	}

	policy := p.policy
	policy.OnRetry = resilience.RetryLogger("catalog", "fetch track page")
	body, err := resilience.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return p.client.FetchPage(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	if p.pages != nil {
		if err := p.pages.Set(ctx, url, body, p.ttl); err != nil {
			zap.L().Warn("page cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return body, nil
}
