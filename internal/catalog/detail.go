package catalog

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cratedigger/trackmatch/internal/model"
)

// metaRowMaxLen bounds the text length of an element considered as a metadata
// row; longer matches are container elements wrapping several rows.
const metaRowMaxLen = 64

// ParseTrackPage extracts candidate metadata from a track detail page. Title
// is mandatory; everything else is best-effort and omitted when the markup
// does not yield it.
func ParseTrackPage(body []byte, pageURL string) (*model.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Field: "track page html", Err: err}
	}

	cand := &model.Candidate{}

	title := strings.TrimSpace(doc.Find("h1").First().Clone().Children().Remove().End().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if mix := strings.TrimSpace(doc.Find("h1 span").First().Text()); mix != "" && !strings.Contains(title, mix) {
		title = title + " (" + mix + ")"
	}
	if title == "" {
		return nil, &ParseError{URL: pageURL, Field: "title"}
	}
	cand.Title = title

	cand.Artists = collectLinkTexts(doc, "a[href*='/artist/']")
	cand.Genres = collectLinkTexts(doc, "a[href*='/genre/']")

	if label := firstLinkText(doc, "a[href*='/label/']"); label != "" {
		cand.Label = &label
	}
	if release := firstLinkText(doc, "a[href*='/release/']"); release != "" {
		cand.ReleaseName = &release
	}

	parseMetaRows(doc, cand)

	if cand.Key != nil && cand.CamelotKey == nil {
		if camelot := model.CamelotKey(*cand.Key); camelot != "" {
			cand.CamelotKey = &camelot
		}
	}
	if cand.ReleaseDate != nil && cand.ReleaseYear == nil {
		if year := yearFromDate(*cand.ReleaseDate); year != 0 {
			cand.ReleaseYear = &year
		}
	}

	return cand, nil
}

// parseMetaRows scans label/value metadata rows ("BPM: 128", "Key: A Minor",
// "Released: 2004-06-21"). First value wins; container elements are skipped by
// the length bound.
func parseMetaRows(doc *goquery.Document, cand *model.Candidate) {
	doc.Find("li, tr, div, span").Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" || len(text) > metaRowMaxLen {
			return
		}

		label, value, ok := strings.Cut(text, ":")
		if !ok {
			return
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}

		switch strings.ToLower(strings.TrimSpace(label)) {
		case "bpm":
			if cand.BPM == nil {
				if bpm, err := strconv.Atoi(value); err == nil && bpm > 0 {
					cand.BPM = &bpm
				}
			}
		case "key":
			if cand.Key == nil {
				v := value
				cand.Key = &v
			}
		case "released", "release date":
			if cand.ReleaseDate == nil {
				v := value
				cand.ReleaseDate = &v
			}
		case "label":
			if cand.Label == nil {
				v := value
				cand.Label = &v
			}
		case "genre", "genres":
			if len(cand.Genres) == 0 {
				for _, g := range strings.Split(value, ",") {
					if g = strings.TrimSpace(g); g != "" {
						cand.Genres = append(cand.Genres, g)
					}
				}
			}
		}
	})
}

// yearFromDate pulls a plausible year out of a date string like "2004-06-21"
// or "21 June 2004".
func yearFromDate(date string) int {
	for _, f := range strings.FieldsFunc(date, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if len(f) == 4 {
			if y, err := strconv.Atoi(f); err == nil && y >= 1900 && y <= 2100 {
				return y
			}
		}
	}
	return 0
}

func collectLinkTexts(doc *goquery.Document, selector string) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	})
	return out
}

func firstLinkText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
