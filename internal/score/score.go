package score

import (
	"strings"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
)

// Fixed bonuses. Small on purpose: they break ties between near-identical
// candidates, they never rescue a weak text match.
const (
	yearBonus          = 3.0
	keyBonus           = 3.0
	mixAgreeBonus      = 5.0
	mixConflictPenalty = -10.0
)

// Score rates one candidate against a track. titleOnly marks tracks whose
// artist had to be inferred; their artist weight is folded into the title
// weight instead of comparing against an unreliable inferred name.
func Score(cand model.Candidate, track model.Track, titleOnly bool, cfg config.MatchConfig) model.ScoredCandidate {
	sc := model.ScoredCandidate{Candidate: cand}

	sc.TitleSimilarity = TokenSetRatio(track.Title, cand.Title)
	sc.ArtistSimilarity = ArtistSimilarity(track.Artists, cand.Artists)

	titleWeight, artistWeight := cfg.TitleWeight, cfg.ArtistWeight
	if titleOnly {
		titleWeight += artistWeight
		artistWeight = 0
	}
	sc.BaseScore = titleWeight*sc.TitleSimilarity + artistWeight*sc.ArtistSimilarity

	if track.Year != nil && cand.ReleaseYear != nil && *track.Year == *cand.ReleaseYear {
		sc.YearBonus = yearBonus
	}
	if track.Key != nil && cand.Key != nil && model.KeysEquivalent(*track.Key, *cand.Key) {
		sc.KeyBonus = keyBonus
	}
	sc.MixBonus = mixBonus(track, cand)

	sc.FinalScore = clamp(sc.BaseScore+sc.YearBonus+sc.KeyBonus+sc.MixBonus, 0, 100)

	sc.GuardOK, sc.RejectReason = checkGuards(cand, track, titleOnly, sc, cfg)
	return sc
}

// mixBonus compares mix-type hints between the track's title and the
// candidate's. Agreement earns a bonus; a track that wants a plain original
// against a candidate remix (or the reverse) is penalized.
func mixBonus(track model.Track, cand model.Candidate) float64 {
	candHints := model.MixHints(cand.Title)
	trackWantsRemix := track.HasRemixHint()
	candIsRemix := hasRemixHint(candHints)

	switch {
	case trackWantsRemix && candIsRemix:
		if hintsOverlap(track.MixHints, candHints) {
			return mixAgreeBonus
		}
		return 0
	case trackWantsRemix != candIsRemix:
		return mixConflictPenalty
	case len(track.MixHints) > 0 && distinguishingOverlap(track.MixHints, candHints):
		// Both plain mixes with matching markers ("Extended Mix" on each side).
		return mixAgreeBonus
	default:
		return 0
	}
}

// bareMarkers are hint tokens present in almost every mix name. They never
// count as agreement on their own: "Extended Mix" and "Original Mix" share
// "mix" while naming different recordings.
var bareMarkers = map[string]bool{
	"mix":     true,
	"version": true,
	"edit":    true,
}

// distinguishingOverlap reports whether two hint lists share a token that
// actually identifies the mix type.
func distinguishingOverlap(a, b []string) bool {
	for _, x := range a {
		if bareMarkers[x] {
			continue
		}
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

func hasRemixHint(hints []string) bool {
	for _, h := range hints {
		switch h {
		case "remix", "rework", "bootleg", "vip", "dub":
			return true
		}
	}
	return false
}

func hintsOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
