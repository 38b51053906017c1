package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cratedigger/trackmatch/internal/config"
)

// The emitted template must stay in lockstep with the built-in defaults, so a
// freshly written config.yaml changes nothing until the user edits it.
func TestDefaultConfigTemplateMatchesDefaults(t *testing.T) {
	var fromTemplate config.Config
	require.NoError(t, yaml.Unmarshal([]byte(defaultConfigYAML), &fromTemplate))

	assert.Equal(t, "https://www.beatport.com", fromTemplate.Catalog.BaseURL)
	assert.Equal(t, "/api/v4/catalog/search", fromTemplate.Catalog.SearchEndpoint)
	assert.Equal(t, []string{"/track/*"}, fromTemplate.Catalog.TrackPathPatterns)
	assert.Equal(t, 4.0, fromTemplate.Catalog.RequestsPerSec)
	assert.Equal(t, 8, fromTemplate.Catalog.Burst)
	assert.Equal(t, 15, fromTemplate.Catalog.TimeoutSecs)

	assert.False(t, fromTemplate.Render.Enabled)
	assert.Equal(t, 1500, fromTemplate.Render.WaitMS)
	assert.False(t, fromTemplate.WebSearch.Enabled)

	assert.Equal(t, 720, fromTemplate.Cache.TTLMinutes)
	assert.Equal(t, "trackmatch-cache.db", fromTemplate.Cache.Path)

	assert.Equal(t, 8, fromTemplate.Query.MaxPerTrack)
	assert.Equal(t, 4, fromTemplate.Query.TitleGramMax)
	assert.True(t, fromTemplate.Query.ReverseVariant)

	assert.Equal(t, 10, fromTemplate.Search.MaxResults)
	assert.Equal(t, 5, fromTemplate.Search.MinResultsBeforeRender)
	assert.False(t, fromTemplate.Search.AlwaysRender)

	assert.Equal(t, 0.6, fromTemplate.Match.TitleWeight)
	assert.Equal(t, 0.4, fromTemplate.Match.ArtistWeight)
	assert.Equal(t, 80.0, fromTemplate.Match.AcceptScore)
	assert.Equal(t, 88.0, fromTemplate.Match.ReviewScore)
	assert.Equal(t, 92.0, fromTemplate.Match.EarlyExitScore)
	assert.Equal(t, 2, fromTemplate.Match.MinQueriesBeforeExit)
	assert.Equal(t, 35.0, fromTemplate.Match.ArtistSimilarityFloor)

	assert.Equal(t, 10, fromTemplate.Run.TrackWorkers)
	assert.Equal(t, 12, fromTemplate.Run.CandidateWorkers)
	assert.Equal(t, 45, fromTemplate.Run.TrackBudgetSecs)

	assert.True(t, fromTemplate.Research.Enabled)
	assert.Equal(t, 90, fromTemplate.Research.TrackBudgetSecs)
	assert.Equal(t, 20, fromTemplate.Research.MaxResults)
	assert.Equal(t, 70.0, fromTemplate.Research.AcceptScore)

	assert.Equal(t, "info", fromTemplate.Log.Level)
	assert.Equal(t, "json", fromTemplate.Log.Format)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))

	written, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigYAML, string(written))

	err = configInitCmd.RunE(configInitCmd, nil)
	require.Error(t, err, "a second init without --force must not clobber edits")

	configInitForce = true
	t.Cleanup(func() { configInitForce = false })
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))
}
