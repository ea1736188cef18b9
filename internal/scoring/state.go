package scoring

import (
	"encoding/json"
	"strings"

	"sift/internal/candidate"
	"sift/internal/config"
	"sift/internal/consensus"
	"sift/internal/jobspec"
	"sift/internal/providers"
	"sift/internal/report"
)

// Mode is the caller-selected cost/thoroughness tier.
type Mode string

const (
	ModeEco      Mode = config.ModeEco
	ModeBalanced Mode = config.ModeBalanced
	ModePremium  Mode = config.ModePremium
)

// ParseMode maps free-form input onto a known mode, defaulting to balanced.
func ParseMode(value string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeEco:
		return ModeEco
	case ModePremium:
		return ModePremium
	default:
		return ModeBalanced
	}
}

// Options controls optional pipeline behavior for one run. The correlation
// identifier is recorded in the audit snapshot only; the algorithm never
// reads it.
type Options struct {
	Mode            Mode
	EnablePrefilter bool
	EnablePacking   bool
	CorrelationID   string
}

// State is the mutable data bag threaded through a single run. It is owned
// exclusively by one in-flight traversal and never shared across runs.
type State struct {
	DocumentText string
	Spec         jobspec.Spec
	Options      Options
	RunID        string

	Fingerprint string
	CacheHit    bool
	Cached      *report.Result

	Profile *candidate.Profile
	Packed  string

	PrefilterApplied bool
	PrefilterPassed  bool
	PrefilterReasons []string

	Primary         *providers.Result
	Secondary       []providers.Result
	FailedProviders []string
	NeedsMore       bool

	Consensus *consensus.Result
	Snapshot  report.Snapshot
	Final     *report.Result
}

// prefilterEnabled reports whether the gating node participates in this run.
// Eco mode skips it entirely regardless of the option.
func (s *State) prefilterEnabled() bool {
	return s.Options.EnablePrefilter && s.Options.Mode != ModeEco
}

func (s *State) packingEnabled() bool {
	return s.Options.EnablePacking
}

// scoreInput returns the representation handed to scoring providers: the
// packed form when the pack node produced one, otherwise the plain profile
// JSON as the uncompressed fallback.
func (s *State) scoreInput() providers.ScoreInput {
	packed := s.Packed
	if packed == "" {
		if encoded, err := json.Marshal(s.Profile); err == nil {
			packed = string(encoded)
		}
	}
	return providers.ScoreInput{Packed: packed, Spec: s.Spec}
}

// rejected reports whether the prefilter gate turned the candidate away.
func (s *State) rejected() bool {
	return s.PrefilterApplied && !s.PrefilterPassed
}
