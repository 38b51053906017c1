package score

import (
	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
	"github.com/cratedigger/trackmatch/internal/norm"
)

// Reject reasons recorded on guarded-out candidates.
const (
	RejectNoTitleOverlap  = "no title token overlap"
	RejectArtistMismatch  = "artist token overlap zero and similarity below floor"
	RejectGenericDominant = "title overlap dominated by a generic word"
)

// genericWords are tokens so common in catalog titles that sharing only one
// of them says nothing about the match.
var genericWords = map[string]bool{
	"mix":          true,
	"remix":        true,
	"original":     true,
	"extended":     true,
	"radio":        true,
	"edit":         true,
	"version":      true,
	"feat":         true,
	"featuring":    true,
	"ft":           true,
	"the":          true,
	"a":            true,
	"instrumental": true,
	"remastered":   true,
}

// checkGuards applies the hard rejection rules. Guards are independent of the
// numeric score: a guarded-out candidate is excluded from winner selection no
// matter how high it scored.
func checkGuards(cand model.Candidate, track model.Track, titleOnly bool, sc model.ScoredCandidate, cfg config.MatchConfig) (bool, string) {
	overlap := titleTokenOverlap(track.Title, cand.Title)

	if len(overlap) == 0 {
		return false, RejectNoTitleOverlap
	}

	if !titleOnly && len(track.Artists) > 0 {
		artistOverlap := 0
		for _, ta := range track.Artists {
			for _, ca := range cand.Artists {
				artistOverlap += TokenOverlap(ta, ca)
			}
		}
		if artistOverlap == 0 && sc.ArtistSimilarity < cfg.ArtistSimilarityFloor {
			return false, RejectArtistMismatch
		}
	}

	if allGeneric(overlap) {
		return false, RejectGenericDominant
	}

	return true, ""
}

// titleTokenOverlap returns the distinct tokens shared by two titles.
func titleTokenOverlap(a, b string) []string {
	setA := norm.TokenSet(a)
	var shared []string
	for tok := range norm.TokenSet(b) {
		if _, ok := setA[tok]; ok {
			shared = append(shared, tok)
		}
	}
	return shared
}

// allGeneric reports whether every shared token is a generic marker word, i.e.
// the overlap carries no distinguishing signal.
func allGeneric(tokens []string) bool {
	for _, tok := range tokens {
		if !genericWords[tok] {
			return false
		}
	}
	return true
}
