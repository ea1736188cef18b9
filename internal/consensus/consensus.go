package consensus

import (
	"errors"
	"fmt"

	"sift/internal/providers"
)

// Level classifies how much the successful providers agree.
type Level string

const (
	LevelStrong   Level = "strong"
	LevelModerate Level = "moderate"
	LevelWeak     Level = "weak"
)

// Thresholds carries the configured spread boundaries. Spreads at or below
// StrongSpreadMax are strong agreement; spreads at or above WeakSpreadMin
// are weak; everything between is moderate.
type Thresholds struct {
	StrongSpreadMax float64
	WeakSpreadMin   float64
}

// Validate reports misordered thresholds.
func (t Thresholds) Validate() error {
	if t.StrongSpreadMax < 0 || t.WeakSpreadMin <= 0 {
		return errors.New("consensus thresholds must be positive")
	}
	if t.StrongSpreadMax >= t.WeakSpreadMin {
		return fmt.Errorf("strong spread max (%.1f) must be below weak spread min (%.1f)", t.StrongSpreadMax, t.WeakSpreadMin)
	}
	return nil
}

// Result is the reconciled opinion across providers.
type Result struct {
	AggregatedScore float64            `json:"aggregated_score"`
	Spread          float64            `json:"spread"`
	Level           Level              `json:"level"`
	PerProvider     []providers.Result `json:"per_provider"`
	Arbitrated      bool               `json:"arbitrated"`
	// Arbiter holds the tie-break verdict when arbitration ran. Its score is
	// already reflected in AggregatedScore; it is kept here for the audit
	// trail, never blended into the weighted mean.
	Arbiter *providers.Result `json:"arbiter,omitempty"`
}

// Aggregate combines successful provider results into a consensus. Weights
// maps provider IDs to their configured base weights over the full provider
// set; weights of failed providers are redistributed proportionally across
// the successful ones. A single result passes through with weight 1.0.
func Aggregate(results []providers.Result, weights map[string]float64, thresholds Thresholds) (Result, error) {
	var empty Result
	successful := make([]providers.Result, 0, len(results))
	for _, res := range results {
		if res.Succeeded {
			successful = append(successful, res)
		}
	}
	if len(successful) == 0 {
		return empty, errors.New("consensus: no successful provider results")
	}

	normalized, err := normalizeWeights(successful, weights)
	if err != nil {
		return empty, err
	}

	var aggregated float64
	minScore, maxScore := successful[0].Score, successful[0].Score
	for i, res := range successful {
		aggregated += normalized[i] * res.Score
		if res.Score < minScore {
			minScore = res.Score
		}
		if res.Score > maxScore {
			maxScore = res.Score
		}
	}
	spread := maxScore - minScore

	return Result{
		AggregatedScore: aggregated,
		Spread:          spread,
		Level:           Classify(spread, thresholds),
		PerProvider:     successful,
	}, nil
}

// Classify maps a score spread onto an agreement level.
func Classify(spread float64, thresholds Thresholds) Level {
	switch {
	case spread <= thresholds.StrongSpreadMax:
		return LevelStrong
	case spread >= thresholds.WeakSpreadMin:
		return LevelWeak
	default:
		return LevelModerate
	}
}

// Arbitrate applies an authoritative tie-break verdict to a consensus. The
// arbiter's score replaces the weighted mean; the original votes stay in
// PerProvider for the audit trail.
func Arbitrate(base Result, verdict providers.Result) Result {
	base.AggregatedScore = verdict.Score
	base.Arbitrated = true
	base.Arbiter = &verdict
	return base
}

// normalizeWeights renormalizes configured base weights over the successful
// set so they sum to 1.0. Providers without a configured weight share
// equally in whatever mass the configured ones leave unclaimed, which also
// covers the everyone-unconfigured case.
func normalizeWeights(successful []providers.Result, weights map[string]float64) ([]float64, error) {
	base := make([]float64, len(successful))
	var total float64
	unweighted := 0
	for i, res := range successful {
		w, ok := weights[res.ProviderID]
		if !ok || w <= 0 {
			unweighted++
			base[i] = -1
			continue
		}
		base[i] = w
		total += w
	}
	if unweighted > 0 {
		share := 0.0
		if total < 1.0 {
			share = (1.0 - total) / float64(unweighted)
		}
		if share <= 0 {
			// Configured weights already claim everything; give stragglers
			// the mean configured weight instead of zero.
			share = total / float64(len(successful)-unweighted)
		}
		for i := range base {
			if base[i] < 0 {
				base[i] = share
				total += share
			}
		}
	}
	if total <= 0 {
		return nil, errors.New("consensus: provider weights sum to zero")
	}
	for i := range base {
		base[i] /= total
	}
	return base, nil
}
