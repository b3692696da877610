package model

// Tier is the application recommendation derived from the overall score.
type Tier string

const (
	TierHighlyRecommended Tier = "highly recommended"
	TierRecommended       Tier = "recommended"
	TierMarginal          Tier = "marginal"
	TierNotRecommended    Tier = "not recommended"
)

// TierFor maps an overall score to its recommendation tier. Boundaries are
// inclusive lower bounds, so a score exactly on a threshold takes the
// higher tier.
func TierFor(overall float64) Tier {
	switch {
	case overall >= 0.85:
		return TierHighlyRecommended
	case overall >= 0.70:
		return TierRecommended
	case overall >= 0.50:
		return TierMarginal
	default:
		return TierNotRecommended
	}
}

// CategoryScore holds one category's score plus its gap report: which
// posting-side items the resume matched and which it is missing. Missing
// items are sorted by posting-side weight descending for presentation.
type CategoryScore struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// CompatibilityScore is the full multi-category match result for one
// (resume, posting) pair. It is created fresh on every scoring call, never
// mutated, and carries no timestamps so repeated scoring of the same inputs
// is bit-identical.
type CompatibilityScore struct {
	Overall    float64       `json:"overall"`
	Technical  CategoryScore `json:"technical"`
	Experience CategoryScore `json:"experience"`
	Keywords   CategoryScore `json:"keywords"`
	MustHave   CategoryScore `json:"must_have"`
	SoftSkills CategoryScore `json:"soft_skills"`

	Tier Tier `json:"tier"`
}
