package model

// TrackState is the pipeline state machine position for a track.
type TrackState string

const (
	StatePending   TrackState = "pending"
	StateSearching TrackState = "searching"
	StateScoring   TrackState = "scoring"
	StateDecided   TrackState = "decided"
	StateCancelled TrackState = "cancelled"
)

// ConfidenceTier buckets a final score for downstream review triage.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// TierFor derives the confidence tier of a matched score. reviewScore and
// acceptScore are independent thresholds: acceptScore decides matched vs
// unmatched, reviewScore only separates high-confidence matches from ones
// flagged for manual review.
func TierFor(finalScore, acceptScore, reviewScore float64) ConfidenceTier {
	switch {
	case finalScore >= reviewScore:
		return TierHigh
	case finalScore >= acceptScore:
		return TierMedium
	default:
		return TierLow
	}
}

// ScoredCandidate is the scoring engine's verdict on one candidate. Instances
// are append-only: IsWinner is the only field set after creation, exactly once
// per track.
type ScoredCandidate struct {
	Candidate        Candidate `json:"candidate"`
	TitleSimilarity  float64   `json:"title_similarity"`  // 0-100
	ArtistSimilarity float64   `json:"artist_similarity"` // 0-100
	BaseScore        float64   `json:"base_score"`
	YearBonus        float64   `json:"year_bonus"`
	KeyBonus         float64   `json:"key_bonus"`
	MixBonus         float64   `json:"mix_bonus"` // negative on mix-hint conflict
	FinalScore       float64   `json:"final_score"`
	GuardOK          bool      `json:"guard_ok"`
	RejectReason     string    `json:"reject_reason,omitempty"`
	ElapsedMS        int64     `json:"elapsed_ms"`
	IsWinner         bool      `json:"is_winner"`
}

// TrackResult is the final, read-only outcome for one track.
type TrackResult struct {
	Track      Track             `json:"track"`
	State      TrackState        `json:"state"`
	Matched    bool              `json:"matched"`
	Winner     *ScoredCandidate  `json:"winner,omitempty"`
	Candidates []ScoredCandidate `json:"candidates,omitempty"`
	Queries    []QueryAudit      `json:"queries,omitempty"`
	Tier       ConfidenceTier    `json:"tier"`
	Researched bool              `json:"researched,omitempty"` // produced by the relaxed second pass
}
