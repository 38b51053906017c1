// Package query turns a track's title and artists into an ordered list of
// search queries. Order is priority: earlier queries are tried first and can
// trigger early exit, so the highest-signal combinations come first.
package query

import (
	"regexp"
	"strings"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/model"
	"github.com/cratedigger/trackmatch/internal/norm"
)

var (
	parenRe       = regexp.MustCompile(`[(\[][^)\]]*[)\]]`)
	remixPhraseRe = regexp.MustCompile(`[(\[]([^)\]]*)[)\]]`)
)

// Generator produces search queries for tracks. Generation is deterministic:
// the same track always yields the same queries in the same order.
type Generator struct {
	cfg config.QueryConfig
}

// NewGenerator creates a Generator.
func NewGenerator(cfg config.QueryConfig) *Generator {
	return &Generator{cfg: cfg}
}

// builder accumulates query texts, deduplicating by normalized form while
// preserving first-seen order.
type builder struct {
	seen    map[string]bool
	queries []model.SearchQuery
}

func (b *builder) add(text string, titleOnly, mixVariant bool) {
	text = strings.Join(strings.Fields(text), " ")
	key := norm.Clean(text)
	if key == "" || b.seen[key] {
		return
	}
	b.seen[key] = true
	b.queries = append(b.queries, model.SearchQuery{
		QueryIndex: len(b.queries),
		Text:       text,
		TitleOnly:  titleOnly,
		MixVariant: mixVariant,
	})
}

// Generate returns the ordered query list for t, capped at MaxPerTrack.
func (g *Generator) Generate(t model.Track) []model.SearchQuery {
	title := t.BaseTitle()
	artists := t.Artists
	titleOnly := false

	if len(artists) == 0 {
		if inferredArtist, inferredTitle := inferArtist(t); inferredArtist != "" {
			artists = []string{inferredArtist}
			if inferredTitle != "" {
				title = inferredTitle
			}
		}
		titleOnly = true
	}

	b := &builder{seen: make(map[string]bool)}

	// Tier 1: full title+artist combinations.
	for _, a := range artists {
		b.add(title+" "+a, titleOnly, false)
	}
	if len(artists) > 1 {
		b.add(title+" "+strings.Join(artists, " "), titleOnly, false)
	}
	if len(artists) == 0 {
		b.add(title, titleOnly, false)
	}

	// Tier 2: leading title n-grams of decreasing length, with the primary
	// artist when one exists.
	words := strings.Fields(title)
	gramMax := g.cfg.TitleGramMax
	if gramMax <= 0 {
		gramMax = 4
	}
	first := ""
	if len(artists) > 0 {
		first = artists[0]
	}
	for n := min(len(words)-1, gramMax); n >= 2; n-- {
		gram := strings.Join(words[:n], " ")
		if first != "" {
			b.add(gram+" "+first, titleOnly, false)
		} else {
			b.add(gram, titleOnly, false)
		}
	}

	// Tier 3: mix-type variants for remix-flagged tracks.
	if t.HasRemixHint() {
		for _, hint := range t.MixHints {
			if first != "" {
				b.add(title+" "+first+" "+hint, titleOnly, true)
			} else {
				b.add(title+" "+hint, titleOnly, true)
			}
		}
	}

	// Tier 4: generic parenthetical phrases as bonus-signal queries.
	for _, phrase := range t.GenericPhrases {
		b.add(title+" "+phrase, titleOnly, false)
	}

	// Tier 5: reverse artist-first variant.
	if g.cfg.ReverseVariant && first != "" {
		b.add(first+" "+title, titleOnly, false)
	}

	queries := b.queries
	if g.cfg.MaxPerTrack > 0 && len(queries) > g.cfg.MaxPerTrack {
		queries = queries[:g.cfg.MaxPerTrack]
	}
	return queries
}

// inferArtist tries to pull an artist out of a title with no artist field.
// Recognized shapes: "Artist - Title" and "Title (Artist Remix)".
func inferArtist(t model.Track) (artist, title string) {
	if left, right, ok := strings.Cut(t.Title, " - "); ok {
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left != "" && right != "" {
			return left, stripParentheticals(right)
		}
	}

	for _, m := range remixPhraseRe.FindAllStringSubmatch(t.Title, -1) {
		phrase := strings.TrimSpace(m[1])
		toks := strings.Fields(phrase)
		if len(toks) >= 2 && strings.EqualFold(toks[len(toks)-1], "remix") {
			return strings.Join(toks[:len(toks)-1], " "), t.BaseTitle()
		}
	}

	return "", ""
}

func stripParentheticals(s string) string {
	s = parenRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
