// Package score rates candidates against tracks. Everything here is a pure
// function of its inputs: no I/O, no clocks, no shared state.
package score

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/cratedigger/trackmatch/internal/norm"
)

// Ratio is a normalized Levenshtein similarity of two cleaned strings, 0-100.
func Ratio(a, b string) float64 {
	a, b = norm.Clean(a), norm.Clean(b)
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return strutil.Similarity(a, b, metrics.NewLevenshtein()) * 100
}

// TokenSetRatio compares two strings as token sets, so word order and
// repeated words do not depress the score ("Strobe (Extended Mix)" vs
// "Extended Mix Strobe"). It scores the shared-token core against each side's
// full sorted token list and takes the best.
func TokenSetRatio(a, b string) float64 {
	ta, tb := norm.Tokenize(a), norm.Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return Ratio(a, b)
	}

	inter, diffA, diffB := tokenPartition(ta, tb)

	core := strings.Join(inter, " ")
	full1 := strings.TrimSpace(core + " " + strings.Join(diffA, " "))
	full2 := strings.TrimSpace(core + " " + strings.Join(diffB, " "))

	best := Ratio(full1, full2)
	if core != "" {
		if r := Ratio(core, full1); r > best {
			best = r
		}
		if r := Ratio(core, full2); r > best {
			best = r
		}
	}
	return best
}

// tokenPartition splits two token lists into sorted intersection and sorted
// per-side remainders (set semantics, duplicates collapsed).
func tokenPartition(a, b []string) (inter, onlyA, onlyB []string) {
	setA, setB := toSet(a), toSet(b)
	for tok := range setA {
		if setB[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return inter, onlyA, onlyB
}

func toSet(toks []string) map[string]bool {
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

// TokenOverlap counts distinct tokens shared by two strings.
func TokenOverlap(a, b string) int {
	setA := norm.TokenSet(a)
	n := 0
	for tok := range norm.TokenSet(b) {
		if _, ok := setA[tok]; ok {
			n++
		}
	}
	return n
}

// ArtistSimilarity compares a track's artist list against a candidate's,
// taking the best pairing and folding in a joined-list comparison so
// multi-artist collaborations still score well.
func ArtistSimilarity(trackArtists, candidateArtists []string) float64 {
	if len(trackArtists) == 0 || len(candidateArtists) == 0 {
		return 0
	}

	best := TokenSetRatio(strings.Join(trackArtists, " "), strings.Join(candidateArtists, " "))
	for _, ta := range trackArtists {
		for _, ca := range candidateArtists {
			if r := TokenSetRatio(ta, ca); r > best {
				best = r
			}
		}
	}
	return best
}
