package report

import (
	"errors"
	"fmt"
	"time"

	"sift/internal/consensus"
)

// Recommendation is the hiring suggestion derived from the final score.
type Recommendation string

const (
	RecommendStrongYes Recommendation = "strong_yes"
	RecommendYes       Recommendation = "yes"
	RecommendMaybe     Recommendation = "maybe"
	RecommendNo        Recommendation = "no"
)

// Bands maps score ranges onto recommendations. Scores at or above
// StrongYesMin are strong_yes, then yes, then maybe; everything below
// MaybeMin is no.
type Bands struct {
	StrongYesMin float64
	YesMin       float64
	MaybeMin     float64
}

// Validate reports misordered bands.
func (b Bands) Validate() error {
	if b.MaybeMin <= 0 {
		return errors.New("recommendation bands must be positive")
	}
	if !(b.StrongYesMin > b.YesMin && b.YesMin > b.MaybeMin) {
		return fmt.Errorf("recommendation bands must descend: strong_yes %.1f > yes %.1f > maybe %.1f", b.StrongYesMin, b.YesMin, b.MaybeMin)
	}
	return nil
}

// For returns the recommendation band a score falls into.
func (b Bands) For(score float64) Recommendation {
	switch {
	case score >= b.StrongYesMin:
		return RecommendStrongYes
	case score >= b.YesMin:
		return RecommendYes
	case score >= b.MaybeMin:
		return RecommendMaybe
	default:
		return RecommendNo
	}
}

// Snapshot records which providers, rules, and thresholds were actually
// applied during a run, for auditability. It is purely observational and
// never feeds back into the algorithm.
type Snapshot struct {
	RunID              string               `json:"run_id"`
	CorrelationID      string               `json:"correlation_id,omitempty"`
	Mode               string               `json:"mode"`
	ProvidersPlanned   []string             `json:"providers_planned"`
	ProvidersSucceeded []string             `json:"providers_succeeded"`
	ProvidersFailed    []string             `json:"providers_failed,omitempty"`
	RulesEvaluated     int                  `json:"rules_evaluated"`
	PrefilterApplied   bool                 `json:"prefilter_applied"`
	PackingApplied     bool                 `json:"packing_applied"`
	Thresholds         consensus.Thresholds `json:"thresholds"`
	CreatedAt          time.Time            `json:"created_at"`
}

// Result is the final outcome of one scoring run.
type Result struct {
	Fingerprint      string            `json:"fingerprint"`
	Score            float64           `json:"score"`
	Recommendation   Recommendation    `json:"recommendation"`
	Rationale        string            `json:"rationale"`
	RejectionReasons []string          `json:"rejection_reasons,omitempty"`
	Consensus        *consensus.Result `json:"consensus,omitempty"`
	Snapshot         Snapshot          `json:"snapshot"`
	CreatedAt        time.Time         `json:"created_at"`
	// FromCache is set on results served from the cache store. It is never
	// persisted; the cached payload always carries false.
	FromCache bool `json:"from_cache,omitempty"`
}
