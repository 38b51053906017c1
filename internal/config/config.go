// Package config loads the immutable run configuration from file, environment
// and defaults. The loaded Config is passed explicitly into the pipeline and
// treated as read-only for the duration of a run.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	WebSearch WebSearchConfig `yaml:"websearch" mapstructure:"websearch"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Query     QueryConfig     `yaml:"query" mapstructure:"query"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CatalogConfig configures access to the catalog service.
type CatalogConfig struct {
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url"`
	SearchEndpoint    string   `yaml:"search_endpoint" mapstructure:"search_endpoint"`
	SearchPagePath    string   `yaml:"search_page_path" mapstructure:"search_page_path"`
	TrackPathPatterns []string `yaml:"track_path_patterns" mapstructure:"track_path_patterns"`
	UserAgent         string   `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSec    float64  `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RenderConfig configures the headless render fallback backend.
type RenderConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	WaitMS      int    `yaml:"wait_ms" mapstructure:"wait_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WebSearchConfig configures the last-resort web-search discovery provider.
type WebSearchConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// CacheConfig configures the in-memory result cache and the sqlite page cache.
type CacheConfig struct {
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	Path       string `yaml:"path" mapstructure:"path"` // sqlite file; empty disables page persistence
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// QueryConfig bounds query generation.
type QueryConfig struct {
	MaxPerTrack    int  `yaml:"max_per_track" mapstructure:"max_per_track"`
	TitleGramMax   int  `yaml:"title_gram_max" mapstructure:"title_gram_max"`
	ReverseVariant bool `yaml:"reverse_variant" mapstructure:"reverse_variant"`
}

// SearchConfig bounds the per-query fallback chain.
type SearchConfig struct {
	MaxResults             int `yaml:"max_results" mapstructure:"max_results"`
	MinResultsBeforeRender int `yaml:"min_results_before_render" mapstructure:"min_results_before_render"`

	// AlwaysRender makes every query eligible for the rendered fallback,
	// regardless of how many results the cheaper methods found. Set on the
	// relaxed second pass.
	AlwaysRender bool `yaml:"always_render" mapstructure:"always_render"`
}

// MatchConfig holds scoring weights and decision thresholds.
//
// AcceptScore and ReviewScore are deliberately independent knobs: a candidate
// below AcceptScore is unmatched, a match between the two is medium tier
// (flagged for manual review), and matches at or above ReviewScore are high
// tier.
type MatchConfig struct {
	TitleWeight           float64 `yaml:"title_weight" mapstructure:"title_weight"`
	ArtistWeight          float64 `yaml:"artist_weight" mapstructure:"artist_weight"`
	AcceptScore           float64 `yaml:"accept_score" mapstructure:"accept_score"`
	ReviewScore           float64 `yaml:"review_score" mapstructure:"review_score"`
	EarlyExitScore        float64 `yaml:"early_exit_score" mapstructure:"early_exit_score"`
	MinQueriesBeforeExit  int     `yaml:"min_queries_before_exit" mapstructure:"min_queries_before_exit"`
	ArtistSimilarityFloor float64 `yaml:"artist_similarity_floor" mapstructure:"artist_similarity_floor"`
}

// RunConfig configures the concurrency coordinator.
type RunConfig struct {
	TrackWorkers     int `yaml:"track_workers" mapstructure:"track_workers"`
	CandidateWorkers int `yaml:"candidate_workers" mapstructure:"candidate_workers"`
	TrackBudgetSecs  int `yaml:"track_budget_secs" mapstructure:"track_budget_secs"`
}

// TrackBudget returns the per-track time budget.
func (c RunConfig) TrackBudget() time.Duration {
	return time.Duration(c.TrackBudgetSecs) * time.Second
}

// ResearchConfig configures the relaxed second pass over unmatched tracks.
type ResearchConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	TrackBudgetSecs int     `yaml:"track_budget_secs" mapstructure:"track_budget_secs"`
	MaxResults      int     `yaml:"max_results" mapstructure:"max_results"`
	AcceptScore     float64 `yaml:"accept_score" mapstructure:"accept_score"`
}

// TrackBudget returns the relaxed per-track time budget.
func (c ResearchConfig) TrackBudget() time.Duration {
	return time.Duration(c.TrackBudgetSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRACKMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://www.beatport.com")
	v.SetDefault("catalog.search_endpoint", "/api/v4/catalog/search")
	v.SetDefault("catalog.search_page_path", "/search")
	v.SetDefault("catalog.track_path_patterns", []string{"/track/*"})
	v.SetDefault("catalog.user_agent", "Mozilla/5.0 (compatible; trackmatch/1.0)")
	v.SetDefault("catalog.requests_per_sec", 4.0)
	v.SetDefault("catalog.burst", 8)
	v.SetDefault("catalog.timeout_secs", 15)

	v.SetDefault("render.enabled", false)
	v.SetDefault("render.base_url", "http://localhost:3000")
	v.SetDefault("render.wait_ms", 1500)
	v.SetDefault("render.timeout_secs", 30)

	v.SetDefault("websearch.enabled", false)
	v.SetDefault("websearch.base_url", "https://serpapi.com")

	v.SetDefault("cache.ttl_minutes", 720)
	v.SetDefault("cache.path", "trackmatch-cache.db")

	v.SetDefault("query.max_per_track", 8)
	v.SetDefault("query.title_gram_max", 4)
	v.SetDefault("query.reverse_variant", true)

	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.min_results_before_render", 5)

	v.SetDefault("match.title_weight", 0.6)
	v.SetDefault("match.artist_weight", 0.4)
	v.SetDefault("match.accept_score", 80)
	v.SetDefault("match.review_score", 88)
	v.SetDefault("match.early_exit_score", 92)
	v.SetDefault("match.min_queries_before_exit", 2)
	v.SetDefault("match.artist_similarity_floor", 35)

	v.SetDefault("run.track_workers", 10)
	v.SetDefault("run.candidate_workers", 12)
	v.SetDefault("run.track_budget_secs", 45)

	v.SetDefault("research.enabled", true)
	v.SetDefault("research.track_budget_secs", 90)
	v.SetDefault("research.max_results", 20)
	v.SetDefault("research.accept_score", 70)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
