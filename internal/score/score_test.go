package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
)

func matchCfg() config.MatchConfig {
	return config.MatchConfig{
		TitleWeight:           0.6,
		ArtistWeight:          0.4,
		AcceptScore:           80,
		ReviewScore:           88,
		ArtistSimilarityFloor: 35,
	}
}

func TestScore_ExactMatch(t *testing.T) {
	track := model.NewTrack(1, "Test Track", []string{"Test Artist"}, nil, nil)
	cand := model.Candidate{Title: "Test Track", Artists: []string{"Test Artist"}}

	sc := Score(cand, track, false, matchCfg())

	require.True(t, sc.GuardOK)
	assert.Equal(t, 100.0, sc.TitleSimilarity)
	assert.Equal(t, 100.0, sc.ArtistSimilarity)
	assert.InDelta(t, 100.0, sc.BaseScore, 0.01)
	assert.GreaterOrEqual(t, sc.FinalScore, 80.0)
}

func TestScore_TitleOnlyFoldsArtistWeight(t *testing.T) {
	track := model.NewTrack(1, "Some Song", nil, nil, nil)
	cand := model.Candidate{Title: "Some Song", Artists: []string{"Whoever"}}

	sc := Score(cand, track, true, matchCfg())

	assert.InDelta(t, 100.0, sc.BaseScore, 0.01,
		"title-only scoring must not be dragged down by the absent artist")
}

func TestScore_Bonuses(t *testing.T) {
	year := 2004
	keyA := "A Minor"
	key8A := "8A"
	track := model.NewTrack(1, "Strobe", []string{"deadmau5"}, &year, &keyA)
	cand := model.Candidate{
		Title:       "Strobe",
		Artists:     []string{"deadmau5"},
		ReleaseYear: &year,
		Key:         &key8A,
	}

	sc := Score(cand, track, false, matchCfg())

	assert.Equal(t, 3.0, sc.YearBonus)
	assert.Equal(t, 3.0, sc.KeyBonus, "Camelot-equivalent keys earn the bonus")
	assert.Equal(t, 100.0, sc.FinalScore, "final score is clamped to 100")
}

func TestScore_MixConflictPenalty(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Original Mix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Strobe (Club Remix)", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())
	assert.Equal(t, -10.0, sc.MixBonus, "original-mix track against a remix candidate is penalized")
}

func TestScore_MixAgreementBonus(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Club Remix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Strobe (Club Remix)", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())
	assert.Equal(t, 5.0, sc.MixBonus)
}

func TestScore_ExtendedVsOriginalNoBonus(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Extended Mix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Strobe (Original Mix)", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())
	assert.Equal(t, 0.0, sc.MixBonus,
		"sharing only the bare word 'mix' between unlike mixes earns nothing")
}

func TestScore_ExtendedVsExtendedBonus(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Extended Mix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Strobe (Extended Mix)", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())
	assert.Equal(t, 5.0, sc.MixBonus, "a matching distinguishing marker still agrees")
}

func TestScore_ClampFloor(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Original Mix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Strobe Remix Thing", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())
	assert.GreaterOrEqual(t, sc.FinalScore, 0.0)
	assert.LessOrEqual(t, sc.FinalScore, 100.0)
}

func TestGuard_ZeroTitleOverlap(t *testing.T) {
	track := model.NewTrack(1, "Strobe", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Completely Different", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())

	assert.False(t, sc.GuardOK, "zero title-token overlap must reject regardless of score")
	assert.Equal(t, RejectNoTitleOverlap, sc.RejectReason)
}

func TestGuard_CrossArtist(t *testing.T) {
	track := model.NewTrack(1, "One More Time", []string{"Daft Punk"}, nil, nil)
	cand := model.Candidate{Title: "One More Time", Artists: []string{"Unrelated Band"}}

	sc := Score(cand, track, false, matchCfg())

	assert.False(t, sc.GuardOK)
	assert.Equal(t, RejectArtistMismatch, sc.RejectReason)
}

func TestGuard_CrossArtistSkippedWhenTitleOnly(t *testing.T) {
	track := model.NewTrack(1, "One More Time", []string{"Daft Punk"}, nil, nil)
	cand := model.Candidate{Title: "One More Time", Artists: []string{"Unrelated Band"}}

	sc := Score(cand, track, true, matchCfg())
	assert.True(t, sc.GuardOK, "artist guard does not apply to title-only queries")
}

func TestGuard_GenericWordDomination(t *testing.T) {
	track := model.NewTrack(1, "Strobe (Extended Mix)", []string{"deadmau5"}, nil, nil)
	cand := model.Candidate{Title: "Anthem (Extended Mix)", Artists: []string{"deadmau5"}}

	sc := Score(cand, track, false, matchCfg())

	assert.False(t, sc.GuardOK, "overlap consisting only of generic marker words is rejected")
	assert.Equal(t, RejectGenericDominant, sc.RejectReason)
}

func TestTokenSetRatio_WordOrderInsensitive(t *testing.T) {
	a := TokenSetRatio("Strobe Extended Mix", "Extended Mix Strobe")
	assert.Equal(t, 100.0, a)

	b := TokenSetRatio("Strobe", "Strobe")
	assert.Equal(t, 100.0, b)

	c := TokenSetRatio("Strobe", "Anthem")
	assert.Less(t, c, 50.0)
}

func TestArtistSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, ArtistSimilarity([]string{"deadmau5"}, []string{"deadmau5"}))
	assert.Equal(t, 0.0, ArtistSimilarity(nil, []string{"deadmau5"}))

	multi := ArtistSimilarity([]string{"Axwell", "Ingrosso"}, []string{"Axwell"})
	assert.Equal(t, 100.0, multi, "best single pairing wins for collaborations")
}
