package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// defaultConfigYAML is the commented default configuration written by
// `config init`. Values mirror the built-in defaults; editing the file only
// matters where it diverges from them.
const defaultConfigYAML = `# trackmatch configuration.
# Every key can also be set via environment, e.g. TRACKMATCH_MATCH_ACCEPT_SCORE=85.

catalog:
  base_url: https://www.beatport.com
  search_endpoint: /api/v4/catalog/search
  search_page_path: /search
  # URL path globs identifying track detail pages ("*" matches one segment).
  track_path_patterns:
    - /track/*
  user_agent: "Mozilla/5.0 (compatible; trackmatch/1.0)"
  requests_per_sec: 4
  burst: 8
  timeout_secs: 15

# Headless render fallback for pages that need a JS runtime.
render:
  enabled: false
  base_url: http://localhost:3000
  key: ""
  wait_ms: 1500
  timeout_secs: 30

# Last-resort web-search discovery.
websearch:
  enabled: false
  base_url: https://serpapi.com
  key: ""

cache:
  ttl_minutes: 720
  # sqlite page cache; empty disables persistence.
  path: trackmatch-cache.db

query:
  max_per_track: 8
  title_gram_max: 4
  reverse_variant: true

search:
  max_results: 10
  # Fewer results than this triggers the rendered fallback.
  min_results_before_render: 5

match:
  title_weight: 0.6
  artist_weight: 0.4
  # accept decides matched/unmatched; review only separates high-confidence
  # matches from ones flagged for manual review.
  accept_score: 80
  review_score: 88
  early_exit_score: 92
  min_queries_before_exit: 2
  artist_similarity_floor: 35

run:
  track_workers: 10
  candidate_workers: 12
  track_budget_secs: 45

# Relaxed second pass over unmatched tracks.
research:
  enabled: true
  track_budget_secs: 90
  max_results: 20
  accept_score: 70

log:
  level: info
  format: json
`

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config.yaml to the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", path)
		}

		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
