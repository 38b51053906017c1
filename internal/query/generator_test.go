package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
)

func queryCfg() config.QueryConfig {
	return config.QueryConfig{MaxPerTrack: 8, TitleGramMax: 4, ReverseVariant: true}
}

func texts(queries []model.SearchQuery) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q.Text
	}
	return out
}

func TestGenerate_FullComboFirst(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe", []string{"deadmau5"}, nil, nil)

	queries := g.Generate(track)
	require.NotEmpty(t, queries)
	assert.Equal(t, "Strobe deadmau5", queries[0].Text, "title+artist combo is highest priority")
	assert.False(t, queries[0].TitleOnly)
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "One More Time (Club Remix)", []string{"Daft Punk"}, nil, nil)

	a := g.Generate(track)
	b := g.Generate(track)
	assert.Equal(t, a, b, "same track must always yield identical queries")
}

func TestGenerate_QueryIndexSequential(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Around The World Tonight", []string{"Daft Punk"}, nil, nil)

	for i, q := range g.Generate(track) {
		assert.Equal(t, i, q.QueryIndex)
	}
}

func TestGenerate_EmptyArtistMarksTitleOnly(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Some Song", nil, nil, nil)

	queries := g.Generate(track)
	require.NotEmpty(t, queries)
	for _, q := range queries {
		assert.True(t, q.TitleOnly, "query %q must be title-only", q.Text)
	}
}

func TestGenerate_InfersArtistFromDashTitle(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "deadmau5 - Strobe", nil, nil, nil)

	queries := g.Generate(track)
	require.NotEmpty(t, queries)
	assert.Equal(t, "Strobe deadmau5", queries[0].Text)
	assert.True(t, queries[0].TitleOnly, "inferred artist still counts as title-only")
}

func TestGenerate_InfersArtistFromRemixPhrase(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe (Eric Prydz Remix)", nil, nil, nil)

	queries := g.Generate(track)
	require.NotEmpty(t, queries)
	assert.Contains(t, texts(queries), "Strobe Eric Prydz")
}

func TestGenerate_MixVariants(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe (Club Remix)", []string{"deadmau5"}, nil, nil)

	queries := g.Generate(track)
	var mixVariants int
	for _, q := range queries {
		if q.MixVariant {
			mixVariants++
		}
	}
	assert.Greater(t, mixVariants, 0, "remix-flagged tracks emit mix variants")
}

func TestGenerate_ReverseVariant(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe", []string{"deadmau5"}, nil, nil)

	assert.Contains(t, texts(g.Generate(track)), "deadmau5 Strobe")
}

func TestGenerate_DedupesByNormalizedText(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe", []string{"Deadmau5", "deadmau5"}, nil, nil)

	queries := g.Generate(track)
	seen := make(map[string]bool)
	for _, q := range queries {
		require.False(t, seen[q.Text], "duplicate query %q", q.Text)
		seen[q.Text] = true
	}
}

func TestGenerate_RespectsCap(t *testing.T) {
	cfg := queryCfg()
	cfg.MaxPerTrack = 3
	g := NewGenerator(cfg)
	track := model.NewTrack(1, "A Very Long Title With Many Words (Club Remix)", []string{"Artist One", "Artist Two"}, nil, nil)

	queries := g.Generate(track)
	assert.LessOrEqual(t, len(queries), 3)
}

func TestGenerate_GenericPhraseQuery(t *testing.T) {
	g := NewGenerator(queryCfg())
	track := model.NewTrack(1, "Strobe (Ibiza 2004)", []string{"deadmau5"}, nil, nil)

	assert.Contains(t, texts(g.Generate(track)), "Strobe Ibiza 2004")
}
