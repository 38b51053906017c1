package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cratedigger/trackmatch/internal/cache"
	"github.com/cratedigger/trackmatch/internal/catalog"
	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/ingest"
	"github.com/cratedigger/trackmatch/internal/pipeline"
	"github.com/cratedigger/trackmatch/internal/query"
	"github.com/cratedigger/trackmatch/internal/search"
	"github.com/cratedigger/trackmatch/pkg/render"
	"github.com/cratedigger/trackmatch/pkg/websearch"
)

var (
	runPlaylist string
	runOutput   string
	runQuiet    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match a playlist against the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		playlist, err := ingest.LoadJSON(runPlaylist)
		if err != nil {
			return err
		}

		runner, pages, err := buildRunner(ctx, cfg)
		if err != nil {
			return err
		}
		if pages != nil {
			defer pages.Close()
		}

		var progress pipeline.ProgressFunc
		if !runQuiet {
			progress = func(p pipeline.Progress) {
				fmt.Fprintf(os.Stderr, "[%d/%d] matched=%d unmatched=%d %.0fs  %s\n",
					p.Completed, p.Total, p.Matched, p.Unmatched, p.ElapsedSeconds, p.CurrentTrackLabel)
			}
		}

		zap.L().Info("starting batch",
			zap.String("playlist", playlist.Name),
			zap.Int("tracks", len(playlist.Tracks)),
		)

		results := runner.Run(ctx, playlist.Tracks, progress)

		out := os.Stdout
		if runOutput != "" {
			f, err := os.Create(runOutput)
			if err != nil {
				return eris.Wrapf(err, "create output %s", runOutput)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// buildRunner wires clients, caches, engines and matchers from configuration.
// The research pass gets its own engine so its larger result caps do not
// pollute the primary pass's cache entries.
func buildRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, *cache.PageStore, error) {
	client, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		return nil, nil, err
	}
	matcher := catalog.NewURLMatcher(client.BaseURL().Hostname(), cfg.Catalog.TrackPathPatterns)

	var pages *cache.PageStore
	if cfg.Cache.Path != "" {
		pages, err = cache.OpenPageStore(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := pages.Migrate(ctx); err != nil {
			pages.Close()
			return nil, nil, err
		}
	}

	var renderer search.Renderer
	if cfg.Render.Enabled {
		renderer = render.NewClient(cfg.Render.BaseURL, cfg.Render.Key,
			render.WithWait(cfg.Render.WaitMS),
		)
	}
	var web search.WebSearcher
	if cfg.WebSearch.Enabled {
		web = websearch.NewClient(cfg.WebSearch.BaseURL, cfg.WebSearch.Key)
	}

	parser := catalog.NewParser(client, pages, cfg.Cache.TTL())
	gen := query.NewGenerator(cfg.Query)

	engine := search.NewEngine(client, matcher, renderer, web, cfg.Search, cfg.Cache.TTL())
	primary := pipeline.NewMatcher(gen, engine, parser, cfg.Match, pipeline.Settings{
		TrackWorkers:     cfg.Run.TrackWorkers,
		CandidateWorkers: cfg.Run.CandidateWorkers,
		TrackBudget:      cfg.Run.TrackBudget(),
	})

	runner := &pipeline.Runner{Primary: primary}
	if cfg.Research.Enabled {
		researchSearch := cfg.Search
		researchSearch.MaxResults = cfg.Research.MaxResults
		researchSearch.AlwaysRender = true
		researchEngine := search.NewEngine(client, matcher, renderer, web, researchSearch, cfg.Cache.TTL())
		runner.Research = pipeline.NewMatcher(gen, researchEngine, parser, cfg.Match, pipeline.Settings{
			TrackWorkers:     cfg.Run.TrackWorkers,
			CandidateWorkers: cfg.Run.CandidateWorkers,
			TrackBudget:      cfg.Research.TrackBudget(),
			AcceptScore:      cfg.Research.AcceptScore,
		})
	}

	return runner, pages, nil
}

func init() {
	runCmd.Flags().StringVar(&runPlaylist, "playlist", "", "playlist JSON file (required)")
	runCmd.Flags().StringVar(&runOutput, "out", "", "write results JSON to file instead of stdout")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "suppress per-track progress output")
	_ = runCmd.MarkFlagRequired("playlist")
	rootCmd.AddCommand(runCmd)
}
