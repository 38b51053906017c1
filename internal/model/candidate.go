package model

// DiscoveryMethod identifies which fallback strategy produced a locator.
type DiscoveryMethod string

const (
	DiscoveryEndpoint  DiscoveryMethod = "endpoint"
	DiscoveryScrape    DiscoveryMethod = "scrape"
	DiscoveryRender    DiscoveryMethod = "render"
	DiscoveryWebSearch DiscoveryMethod = "websearch"
)

// CandidateLocator is an opaque reference to a catalog detail page, tagged
// with where in the search it was discovered.
type CandidateLocator struct {
	URL              string          `json:"url"`
	SourceQueryIndex int             `json:"source_query_index"`
	CandidateIndex   int             `json:"candidate_index"` // position within the query's result list
	Method           DiscoveryMethod `json:"method"`
}

// Candidate is the metadata parsed from one catalog detail page. Every field
// except Title is optional: the catalog's markup drifts and extraction is
// best-effort. Immutable once parsed; cached by URL.
type Candidate struct {
	Title       string           `json:"title"`
	Artists     []string         `json:"artists,omitempty"`
	Key         *string          `json:"key,omitempty"`
	CamelotKey  *string          `json:"camelot_key,omitempty"`
	BPM         *int             `json:"bpm,omitempty"`
	ReleaseYear *int             `json:"release_year,omitempty"`
	Label       *string          `json:"label,omitempty"`
	Genres      []string         `json:"genres,omitempty"`
	ReleaseName *string          `json:"release_name,omitempty"`
	ReleaseDate *string          `json:"release_date,omitempty"`
	Locator     CandidateLocator `json:"locator"`
}
