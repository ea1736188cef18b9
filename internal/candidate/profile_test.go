package candidate

import (
	"errors"
	"testing"

	"sift/internal/services"
)

func TestValidateRequiresNameAndSubstance(t *testing.T) {
	var nilProfile *Profile
	if err := nilProfile.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("nil profile: %v", err)
	}

	profile := &Profile{Skills: []string{"Go"}}
	if err := profile.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("nameless profile: %v", err)
	}

	profile = &Profile{Name: "Jane Doe"}
	if err := profile.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty profile: %v", err)
	}

	profile = &Profile{Name: "Jane Doe", Roles: []Role{{Title: "Engineer", Company: "Acme"}}}
	if err := profile.Validate(); err != nil {
		t.Fatalf("profile with work history rejected: %v", err)
	}
}

func TestNormalizeDropsEmptyEntries(t *testing.T) {
	profile := &Profile{
		Name:   "  Jane Doe ",
		Skills: []string{" Go ", "", "  "},
		Roles: []Role{
			{Title: "  Engineer ", Company: " Acme "},
			{Title: "  ", Company: ""},
		},
		YearsExperience: -2,
	}
	profile.Normalize()

	if profile.Name != "Jane Doe" {
		t.Fatalf("name = %q", profile.Name)
	}
	if len(profile.Skills) != 1 || profile.Skills[0] != "Go" {
		t.Fatalf("skills = %v", profile.Skills)
	}
	if len(profile.Roles) != 1 || profile.Roles[0].Title != "Engineer" {
		t.Fatalf("roles = %+v", profile.Roles)
	}
	if profile.YearsExperience != 0 {
		t.Fatalf("negative experience not clamped: %v", profile.YearsExperience)
	}
}

func TestHasSkillIsCaseInsensitive(t *testing.T) {
	profile := &Profile{Skills: []string{"Go", "PostgreSQL"}}
	if !profile.HasSkill("go") || !profile.HasSkill("POSTGRESQL") {
		t.Fatal("skill lookup should fold case")
	}
	if profile.HasSkill("Rust") || profile.HasSkill("") {
		t.Fatal("unexpected skill match")
	}
}

func TestTotalYearsPrefersExplicitValue(t *testing.T) {
	profile := &Profile{
		YearsExperience: 8,
		Roles:           []Role{{Years: 2}, {Years: 3}},
	}
	if got := profile.TotalYears(); got != 8 {
		t.Fatalf("TotalYears = %v, want 8", got)
	}

	profile.YearsExperience = 0
	if got := profile.TotalYears(); got != 5 {
		t.Fatalf("TotalYears = %v, want role sum 5", got)
	}
}
