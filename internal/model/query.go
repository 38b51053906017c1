package model

// SearchQuery is one candidate search string for a track. Queries are executed
// in QueryIndex order; earlier queries are higher priority and can trigger
// early exit.
type SearchQuery struct {
	QueryIndex int    `json:"query_index"` // 0-based execution order
	Text       string `json:"text"`
	TitleOnly  bool   `json:"title_only"`  // artist was absent and had to be inferred
	MixVariant bool   `json:"mix_variant"` // query targets a remix/mix-type variant
}

// QueryAudit records the outcome of one executed query.
type QueryAudit struct {
	QueryIndex     int    `json:"query_index"`
	Text           string `json:"text"`
	CandidateCount int    `json:"candidate_count"`
	ElapsedMS      int64  `json:"elapsed_ms"`
	IsWinnerQuery  bool   `json:"is_winner_query"`
	IsStopQuery    bool   `json:"is_stop_query"` // query at which early exit occurred
}
