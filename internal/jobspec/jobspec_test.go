package jobspec

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.toml")
	content := `
title = "  Senior Backend Engineer  "
required_skills = ["Go", "  ", "PostgreSQL"]
min_years_experience = 5.0

[[must_have]]
kind = "skill"
value = "Go"

[[must_have]]
kind = "min_years"
value = "5"
reason = "team requires senior experience"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Title != "Senior Backend Engineer" {
		t.Fatalf("title not trimmed: %q", spec.Title)
	}
	if len(spec.RequiredSkills) != 2 {
		t.Fatalf("empty skills not dropped: %v", spec.RequiredSkills)
	}
	if len(spec.MustHave) != 2 {
		t.Fatalf("rules = %+v, want 2", spec.MustHave)
	}
}

func TestLoadRejectsInvalidSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.toml")
	if err := os.WriteFile(path, []byte(`description = "no title"`), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing title")
	}
}

func TestValidateRuleKinds(t *testing.T) {
	spec := Spec{Title: "Engineer", MustHave: []Rule{{Kind: "astrology", Value: "aries"}}}
	if err := spec.Validate(); err == nil {
		t.Fatal("unknown rule kind accepted")
	}

	spec = Spec{Title: "Engineer", MustHave: []Rule{{Kind: RuleMinYears, Value: "several"}}}
	if err := spec.Validate(); err == nil {
		t.Fatal("non-numeric min_years accepted")
	}

	spec = Spec{Title: "Engineer", MustHave: []Rule{{Kind: RuleSkill}}}
	if err := spec.Validate(); err == nil {
		t.Fatal("skill rule without value accepted")
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	a := Spec{
		Title:   "Engineer",
		Weights: map[string]float64{"skills": 0.7, "culture": 0.3},
	}
	b := Spec{
		Title:   "  Engineer ",
		Weights: map[string]float64{"culture": 0.3, "skills": 0.7},
	}
	if a.Canonical() != b.Canonical() {
		t.Fatalf("canonical forms differ:\n%s\n%s", a.Canonical(), b.Canonical())
	}

	c := a
	c.Weights = map[string]float64{"skills": 0.9}
	if a.Canonical() == c.Canonical() {
		t.Fatal("weight change must change canonical form")
	}
}
