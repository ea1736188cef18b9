package jobspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Spec describes the position a document is scored against.
type Spec struct {
	Title              string   `toml:"title" json:"title"`
	Description        string   `toml:"description" json:"description"`
	RequiredSkills     []string `toml:"required_skills" json:"required_skills"`
	NiceToHave         []string `toml:"nice_to_have" json:"nice_to_have"`
	MinYearsExperience float64  `toml:"min_years_experience" json:"min_years_experience"`
	MustHave           []Rule   `toml:"must_have" json:"must_have"`

	// Weights lets callers bias individual scoring criteria. The values are
	// forwarded verbatim to providers inside the scoring prompt; the
	// consensus aggregator never reads them.
	Weights map[string]float64 `toml:"weights" json:"weights,omitempty"`
}

// Rule is a hard gating requirement evaluated by the prefilter node.
type Rule struct {
	Kind   RuleKind `toml:"kind" json:"kind"`
	Value  string   `toml:"value" json:"value"`
	Reason string   `toml:"reason" json:"reason"`
}

// RuleKind enumerates the supported gating rule types.
type RuleKind string

const (
	// RuleSkill requires the named skill to appear in the extracted profile.
	RuleSkill RuleKind = "skill"
	// RuleMinYears requires total experience of at least Value years.
	RuleMinYears RuleKind = "min_years"
	// RuleCertification requires the named certification.
	RuleCertification RuleKind = "certification"
)

// Load reads a spec from a TOML file.
func Load(path string) (Spec, error) {
	var spec Spec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read job spec: %w", err)
	}
	if err := toml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse job spec: %w", err)
	}
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

// Normalize trims whitespace and drops empty entries so equivalent specs
// compare and fingerprint identically.
func (s *Spec) Normalize() {
	if s == nil {
		return
	}
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.RequiredSkills = normalizeList(s.RequiredSkills)
	s.NiceToHave = normalizeList(s.NiceToHave)
	rules := s.MustHave[:0]
	for _, rule := range s.MustHave {
		rule.Value = strings.TrimSpace(rule.Value)
		rule.Reason = strings.TrimSpace(rule.Reason)
		if rule.Kind == "" && rule.Value == "" {
			continue
		}
		rules = append(rules, rule)
	}
	s.MustHave = rules
}

// Validate reports structural problems with the spec itself.
func (s Spec) Validate() error {
	if s.Title == "" {
		return errors.New("job spec: title is required")
	}
	for i, rule := range s.MustHave {
		switch rule.Kind {
		case RuleSkill, RuleCertification:
			if rule.Value == "" {
				return fmt.Errorf("job spec: must_have[%d]: %s rule requires a value", i, rule.Kind)
			}
		case RuleMinYears:
			if _, err := rule.years(); err != nil {
				return fmt.Errorf("job spec: must_have[%d]: %w", i, err)
			}
		default:
			return fmt.Errorf("job spec: must_have[%d]: unknown rule kind %q", i, rule.Kind)
		}
	}
	return nil
}

// Canonical returns a deterministic serialization of the spec for use in
// content fingerprints. Map keys are sorted; JSON field order is fixed by
// the struct definition.
func (s Spec) Canonical() string {
	copied := s
	copied.Normalize()
	if len(copied.Weights) > 0 {
		keys := make([]string, 0, len(copied.Weights))
		for key := range copied.Weights {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, key := range keys {
			fmt.Fprintf(&b, "%s=%g;", key, copied.Weights[key])
		}
		// Encode the sorted weights separately; the struct marshal below
		// omits the map to keep ordering deterministic.
		copied.Weights = nil
		encoded, _ := json.Marshal(copied)
		return string(encoded) + "|weights:" + b.String()
	}
	encoded, _ := json.Marshal(copied)
	return string(encoded)
}

func normalizeList(values []string) []string {
	out := values[:0]
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
