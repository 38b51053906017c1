// Package model defines the core types flowing through the matching pipeline:
// Track -> SearchQuery -> CandidateLocator -> Candidate -> ScoredCandidate ->
// TrackResult.
package model

import (
	"regexp"
	"strings"

	"github.com/cratedigger/trackmatch/internal/norm"
)

// Track is one input record of the batch. Created once at ingestion and never
// mutated afterwards.
type Track struct {
	Index          int      `json:"index"` // 1-based position in the batch
	Title          string   `json:"title"`
	OriginalTitle  string   `json:"original_title"`
	Artists        []string `json:"artists,omitempty"`
	Year           *int     `json:"year,omitempty"`
	Key            *string  `json:"key,omitempty"`
	MixHints       []string `json:"mix_hints,omitempty"`
	GenericPhrases []string `json:"generic_phrases,omitempty"`
}

// mixHintWords are mix-type markers recognized inside parenthesized title
// phrases. Matching is token based, so "Club Mix" yields both "club" and "mix".
var mixHintWords = map[string]bool{
	"remix":        true,
	"mix":          true,
	"original":     true,
	"extended":     true,
	"radio":        true,
	"edit":         true,
	"club":         true,
	"dub":          true,
	"vip":          true,
	"rework":       true,
	"bootleg":      true,
	"instrumental": true,
	"acapella":     true,
	"remaster":     true,
	"remastered":   true,
}

var parentheticalRe = regexp.MustCompile(`[(\[]([^)\]]*)[)\]]`)

// NewTrack builds a Track from raw ingestion fields, deriving mix hints and
// generic parenthetical phrases from the title.
func NewTrack(index int, title string, artists []string, year *int, key *string) Track {
	hints, generic := splitTitlePhrases(title)

	var clean []string
	for _, a := range artists {
		a = strings.TrimSpace(a)
		if a != "" {
			clean = append(clean, a)
		}
	}

	return Track{
		Index:          index,
		Title:          strings.TrimSpace(title),
		OriginalTitle:  title,
		Artists:        clean,
		Year:           year,
		Key:            key,
		MixHints:       hints,
		GenericPhrases: generic,
	}
}

// Label returns a short human-readable identifier for progress output.
func (t Track) Label() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return strings.Join(t.Artists, ", ") + " - " + t.Title
}

// BaseTitle returns the title with all parenthesized phrases removed.
func (t Track) BaseTitle() string {
	s := parentheticalRe.ReplaceAllString(t.Title, " ")
	return strings.Join(strings.Fields(s), " ")
}

// HasRemixHint reports whether the track title carries a remix-style marker
// (anything other than an original/radio mix).
func (t Track) HasRemixHint() bool {
	for _, h := range t.MixHints {
		switch h {
		case "remix", "rework", "bootleg", "vip", "dub":
			return true
		}
	}
	return false
}

// MixHints extracts mix-type markers from a raw title, in first-seen order.
func MixHints(title string) []string {
	hints, _ := splitTitlePhrases(title)
	return hints
}

// splitTitlePhrases walks the parenthesized phrases of a title and separates
// mix-type markers from generic phrases ("Club Anthem Version" vs "Ibiza 2004").
func splitTitlePhrases(title string) (hints, generic []string) {
	seen := make(map[string]bool)
	for _, m := range parentheticalRe.FindAllStringSubmatch(title, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase == "" {
			continue
		}
		toks := norm.Tokenize(phrase)
		isMix := false
		for _, tok := range toks {
			if mixHintWords[tok] && !seen[tok] {
				seen[tok] = true
				hints = append(hints, tok)
				isMix = true
			} else if mixHintWords[tok] {
				isMix = true
			}
		}
		if !isMix {
			generic = append(generic, phrase)
		}
	}
	return hints, generic
}
