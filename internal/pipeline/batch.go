package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cratedigger/trackmatch/internal/model"
)

// Progress is the snapshot handed to the progress callback after each track
// completes.
type Progress struct {
	Completed         int
	Total             int
	Matched           int
	Unmatched         int
	CurrentTrackLabel string
	ElapsedSeconds    float64
}

// ProgressFunc receives progress snapshots. It runs on pipeline goroutines
// and is panic-isolated: a failing callback never aborts processing.
type ProgressFunc func(Progress)

// MatchAll runs the pipeline over every track through the bounded track pool.
// It always returns exactly one result per track, sorted by track index;
// cancellation turns unfinished tracks into unmatched results.
func (m *Matcher) MatchAll(ctx context.Context, tracks []model.Track, progress ProgressFunc) []model.TrackResult {
	start := time.Now()
	results := make([]model.TrackResult, len(tracks))

	var mu sync.Mutex
	completed, matched := 0, 0

	var g errgroup.Group
	g.SetLimit(m.settings.TrackWorkers)

	for i, track := range tracks {
		i, track := i, track
		g.Go(func() error {
			res := m.matchTrack(ctx, track)
			results[i] = res

			mu.Lock()
			completed++
			if res.Matched {
				matched++
			}
			snap := Progress{
				Completed:         completed,
				Total:             len(tracks),
				Matched:           matched,
				Unmatched:         completed - matched,
				CurrentTrackLabel: track.Label(),
				ElapsedSeconds:    time.Since(start).Seconds(),
			}
			mu.Unlock()

			notify(progress, snap)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Track.Index < results[j].Track.Index
	})
	return results
}

// notify invokes the progress callback, swallowing panics.
func notify(progress ProgressFunc, snap Progress) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	progress(snap)
}

// Runner couples the primary pass with the optional relaxed research pass
// over tracks the primary pass could not match.
type Runner struct {
	Primary  *Matcher
	Research *Matcher // nil disables the second pass
}

// Run executes the primary pass and, when enabled, one research pass over the
// unmatched remainder. Never recursive: research results are final.
func (r *Runner) Run(ctx context.Context, tracks []model.Track, progress ProgressFunc) []model.TrackResult {
	results := r.Primary.MatchAll(ctx, tracks, progress)

	if r.Research != nil && ctx.Err() == nil {
		var unmatched []model.Track
		for _, res := range results {
			if !res.Matched && res.State == model.StateDecided {
				unmatched = append(unmatched, res.Track)
			}
		}

		if len(unmatched) > 0 {
			zap.L().Info("starting research pass", zap.Int("tracks", len(unmatched)))

			byIndex := make(map[int]int, len(results))
			for i, res := range results {
				byIndex[res.Track.Index] = i
			}

			for _, res := range r.Research.MatchAll(ctx, unmatched, progress) {
				res.Researched = true
				if res.Matched {
					results[byIndex[res.Track.Index]] = res
				}
			}
		}
	}

	logSummary(results)
	return results
}

func logSummary(results []model.TrackResult) {
	matched, researched := 0, 0
	tiers := map[model.ConfidenceTier]int{}
	for _, res := range results {
		if res.Matched {
			matched++
			tiers[res.Tier]++
			if res.Researched {
				researched++
			}
		}
	}
	zap.L().Info("batch complete",
		zap.Int("tracks", len(results)),
		zap.Int("matched", matched),
		zap.Int("unmatched", len(results)-matched),
		zap.Int("matched_by_research", researched),
		zap.Int("tier_high", tiers[model.TierHigh]),
		zap.Int("tier_medium", tiers[model.TierMedium]),
	)
}
