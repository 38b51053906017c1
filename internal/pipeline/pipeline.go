// Package pipeline drives the per-track matching flow (queries -> discovery ->
// parse -> score -> decision) and the batch coordinator on top of it.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
	"github.com/cratedigger/trackmatch/internal/score"
)

// Searcher executes one query's discovery chain. internal/search.Engine
// implements it.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) []model.CandidateLocator
}

// Parser resolves a locator into a parsed candidate. internal/catalog.Parser
// implements it.
type Parser interface {
	Parse(ctx context.Context, loc model.CandidateLocator) (*model.Candidate, error)
}

// Generator produces the ordered query list for a track. internal/query
// implements it.
type Generator interface {
	Generate(t model.Track) []model.SearchQuery
}

// Settings are the per-pass knobs. The research pass reuses the pipeline with
// a longer budget and a lower accept score.
type Settings struct {
	TrackWorkers     int
	CandidateWorkers int
	TrackBudget      time.Duration
	AcceptScore      float64
}

// Matcher runs the matching pipeline with one fixed configuration.
type Matcher struct {
	gen      Generator
	searcher Searcher
	parser   Parser
	match    config.MatchConfig
	settings Settings
}

// NewMatcher creates a Matcher. A zero AcceptScore in settings falls back to
// the match config's accept score.
func NewMatcher(gen Generator, searcher Searcher, parser Parser, match config.MatchConfig, settings Settings) *Matcher {
	if settings.AcceptScore <= 0 {
		settings.AcceptScore = match.AcceptScore
	}
	if settings.TrackWorkers <= 0 {
		settings.TrackWorkers = 10
	}
	if settings.CandidateWorkers <= 0 {
		settings.CandidateWorkers = 12
	}
	return &Matcher{
		gen:      gen,
		searcher: searcher,
		parser:   parser,
		match:    match,
		settings: settings,
	}
}

// matchTrack runs the full pipeline for one track. It always returns a
// result; failures along the way degrade to matched=false.
func (m *Matcher) matchTrack(ctx context.Context, track model.Track) model.TrackResult {
	result := model.TrackResult{Track: track, State: model.StatePending, Tier: model.TierLow}

	if ctx.Err() != nil {
		result.State = model.StateCancelled
		return result
	}

	queries := m.gen.Generate(track)
	result.State = model.StateSearching

	deadline := time.Time{}
	if m.settings.TrackBudget > 0 {
		deadline = time.Now().Add(m.settings.TrackBudget)
	}
	budgetSpent := func() bool {
		return !deadline.IsZero() && time.Now().After(deadline)
	}

	seenURLs := make(map[string]bool)
	var candidates []model.ScoredCandidate

	for _, q := range queries {
		if ctx.Err() != nil {
			result.State = model.StateCancelled
			result.Candidates = candidates
			return result
		}
		if budgetSpent() {
			zap.L().Debug("track budget exhausted",
				zap.Int("track", track.Index),
				zap.Int("queries_run", len(result.Queries)),
			)
			break
		}

		queryStart := time.Now()
		locators := m.searcher.Search(ctx, q)

		var fresh []model.CandidateLocator
		for _, loc := range locators {
			if !seenURLs[loc.URL] {
				seenURLs[loc.URL] = true
				fresh = append(fresh, loc)
			}
		}

		scored := m.scoreCandidates(ctx, track, q, fresh, budgetSpent)
		candidates = append(candidates, scored...)

		audit := model.QueryAudit{
			QueryIndex:     q.QueryIndex,
			Text:           q.Text,
			CandidateCount: len(scored),
			ElapsedMS:      time.Since(queryStart).Milliseconds(),
		}
		result.Queries = append(result.Queries, audit)

		if len(result.Queries) >= m.match.MinQueriesBeforeExit &&
			bestScore(candidates) >= m.match.EarlyExitScore {
			result.Queries[len(result.Queries)-1].IsStopQuery = true
			break
		}
	}

	result.State = model.StateScoring
	m.decide(&result, candidates)
	return result
}

// scoreCandidates fetches, parses and scores a query's locators through the
// bounded candidate pool. Per-candidate failures are logged and skipped.
// Dispatch stops at cancellation or budget exhaustion; in-flight work drains.
func (m *Matcher) scoreCandidates(ctx context.Context, track model.Track, q model.SearchQuery, locators []model.CandidateLocator, budgetSpent func() bool) []model.ScoredCandidate {
	var mu sync.Mutex
	var scored []model.ScoredCandidate

	var g errgroup.Group
	g.SetLimit(m.settings.CandidateWorkers)
	workCtx := context.WithoutCancel(ctx)

	for _, loc := range locators {
		if ctx.Err() != nil || budgetSpent() {
			break
		}
		loc := loc
		g.Go(func() error {
			start := time.Now()
			cand, err := m.parser.Parse(workCtx, loc)
			if err != nil {
				zap.L().Debug("candidate skipped",
					zap.String("url", loc.URL),
					zap.Error(err),
				)
				return nil
			}

			sc := score.Score(*cand, track, q.TitleOnly, m.match)
			sc.ElapsedMS = time.Since(start).Milliseconds()

			mu.Lock()
			scored = append(scored, sc)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Workers finish in arbitrary order; restore discovery order so every
	// downstream consumer sees a deterministic list.
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].Candidate.Locator, scored[j].Candidate.Locator
		if a.SourceQueryIndex != b.SourceQueryIndex {
			return a.SourceQueryIndex < b.SourceQueryIndex
		}
		return a.CandidateIndex < b.CandidateIndex
	})
	return scored
}

// decide picks the winner among guard-passing candidates and finalizes the
// result. Ties on FinalScore resolve to the earlier discovery (lower query
// index, then lower candidate index); candidates are already in that order,
// so a strict comparison suffices.
func (m *Matcher) decide(result *model.TrackResult, candidates []model.ScoredCandidate) {
	result.Candidates = candidates
	result.State = model.StateDecided

	winner := -1
	for i, sc := range candidates {
		if !sc.GuardOK {
			continue
		}
		if winner == -1 || sc.FinalScore > candidates[winner].FinalScore {
			winner = i
		}
	}

	if winner == -1 || candidates[winner].FinalScore < m.settings.AcceptScore {
		return
	}

	result.Candidates[winner].IsWinner = true
	w := result.Candidates[winner]
	result.Winner = &w
	result.Matched = true
	result.Tier = model.TierFor(w.FinalScore, m.settings.AcceptScore, m.match.ReviewScore)

	for i := range result.Queries {
		if result.Queries[i].QueryIndex == w.Candidate.Locator.SourceQueryIndex {
			result.Queries[i].IsWinnerQuery = true
		}
	}
}

// bestScore returns the highest guard-passing final score seen so far.
func bestScore(candidates []model.ScoredCandidate) float64 {
	best := -1.0
	for _, sc := range candidates {
		if sc.GuardOK && sc.FinalScore > best {
			best = sc.FinalScore
		}
	}
	return best
}
