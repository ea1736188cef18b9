package jobspec

import (
	"fmt"
	"strconv"
	"strings"

	"sift/internal/candidate"
)

// Evaluate applies the spec's must-have rules to an extracted profile. It
// returns whether the candidate passes every rule and, when not, the reasons
// for rejection. A spec without rules always passes.
func (s Spec) Evaluate(profile *candidate.Profile) (bool, []string) {
	if profile == nil {
		return false, []string{"no extracted profile to evaluate"}
	}
	var reasons []string
	for _, rule := range s.MustHave {
		if ok, reason := rule.evaluate(profile); !ok {
			reasons = append(reasons, reason)
		}
	}
	return len(reasons) == 0, reasons
}

func (r Rule) evaluate(profile *candidate.Profile) (bool, string) {
	switch r.Kind {
	case RuleSkill:
		if profile.HasSkill(r.Value) {
			return true, ""
		}
		return false, r.reason(fmt.Sprintf("missing required skill %q", r.Value))
	case RuleCertification:
		if profile.HasCertification(r.Value) {
			return true, ""
		}
		return false, r.reason(fmt.Sprintf("missing required certification %q", r.Value))
	case RuleMinYears:
		want, err := r.years()
		if err != nil {
			return false, r.reason(err.Error())
		}
		if profile.TotalYears() >= want {
			return true, ""
		}
		return false, r.reason(fmt.Sprintf("requires %.1f years of experience, found %.1f", want, profile.TotalYears()))
	default:
		return false, fmt.Sprintf("unknown rule kind %q", r.Kind)
	}
}

func (r Rule) years() (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("min_years rule requires a non-negative number, got %q", r.Value)
	}
	return value, nil
}

func (r Rule) reason(fallback string) string {
	if r.Reason != "" {
		return r.Reason
	}
	return fallback
}
