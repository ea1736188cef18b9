package providers

import (
	"context"
	"strings"

	"sift/internal/candidate"
	"sift/internal/jobspec"
)

// Confidence grades how sure a provider is about its own score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence maps free-form provider output onto the known grades,
// defaulting to low for anything unrecognized.
func ParseConfidence(value string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(value))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Result is one provider's opinion about a document.
type Result struct {
	ProviderID string     `json:"provider_id"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`
	Succeeded  bool       `json:"succeeded"`
}

// ScoreInput carries everything a provider needs to score a candidate.
// Packed holds the compressed representation produced by the pack node; when
// packing failed or was disabled it falls back to the plain profile JSON.
type ScoreInput struct {
	Packed string
	Spec   jobspec.Spec
}

// Client is the capability each configured provider exposes to the pipeline.
//
// Implementations must honor context cancellation inside every call so a
// caller abandoning a run stops consuming provider capacity.
type Client interface {
	ID() string
	Extract(ctx context.Context, documentText string) (*candidate.Profile, error)
	Score(ctx context.Context, input ScoreInput) (Result, error)
	HealthCheck(ctx context.Context) error
}

// ClampScore keeps provider scores inside the documented 0-100 range.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
