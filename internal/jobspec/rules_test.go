package jobspec

import (
	"strings"
	"testing"

	"sift/internal/candidate"
)

func testProfile() *candidate.Profile {
	return &candidate.Profile{
		Name:           "Jane Doe",
		Skills:         []string{"Go", "PostgreSQL"},
		Certifications: []string{"CKA"},
		Roles: []candidate.Role{
			{Title: "Engineer", Company: "Acme", Years: 4},
			{Title: "SRE", Company: "Initech", Years: 2},
		},
	}
}

func TestEvaluatePassesWithoutRules(t *testing.T) {
	passed, reasons := (Spec{Title: "Engineer"}).Evaluate(testProfile())
	if !passed || len(reasons) != 0 {
		t.Fatalf("rule-free spec rejected candidate: %v", reasons)
	}
}

func TestEvaluateCollectsEveryFailure(t *testing.T) {
	spec := Spec{Title: "Engineer", MustHave: []Rule{
		{Kind: RuleSkill, Value: "Rust"},
		{Kind: RuleCertification, Value: "AWS SA"},
		{Kind: RuleMinYears, Value: "10"},
	}}
	passed, reasons := spec.Evaluate(testProfile())
	if passed {
		t.Fatal("candidate should fail every rule")
	}
	if len(reasons) != 3 {
		t.Fatalf("reasons = %v, want all three failures reported", reasons)
	}
}

func TestEvaluateRuleSemantics(t *testing.T) {
	profile := testProfile()

	passed, _ := (Spec{Title: "x", MustHave: []Rule{{Kind: RuleSkill, Value: "go"}}}).Evaluate(profile)
	if !passed {
		t.Fatal("skill match should fold case")
	}

	passed, _ = (Spec{Title: "x", MustHave: []Rule{{Kind: RuleCertification, Value: "cka"}}}).Evaluate(profile)
	if !passed {
		t.Fatal("certification match should fold case")
	}

	passed, _ = (Spec{Title: "x", MustHave: []Rule{{Kind: RuleMinYears, Value: "5"}}}).Evaluate(profile)
	if !passed {
		t.Fatal("role years should sum to 6, satisfying the rule")
	}

	passed, _ = (Spec{Title: "x", MustHave: []Rule{{Kind: RuleMinYears, Value: "7"}}}).Evaluate(profile)
	if passed {
		t.Fatal("6 years should not satisfy a 7 year requirement")
	}
}

func TestEvaluateCustomReasonWins(t *testing.T) {
	spec := Spec{Title: "x", MustHave: []Rule{
		{Kind: RuleSkill, Value: "Rust", Reason: "team codebase is Rust-only"},
	}}
	_, reasons := spec.Evaluate(testProfile())
	if len(reasons) != 1 || reasons[0] != "team codebase is Rust-only" {
		t.Fatalf("custom reason not used: %v", reasons)
	}
}

func TestEvaluateNilProfile(t *testing.T) {
	passed, reasons := (Spec{Title: "x"}).Evaluate(nil)
	if passed {
		t.Fatal("nil profile must not pass")
	}
	if len(reasons) != 1 || !strings.Contains(reasons[0], "no extracted profile") {
		t.Fatalf("reasons = %v", reasons)
	}
}
