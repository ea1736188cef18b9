package contentid

import (
	"testing"

	"sift/internal/jobspec"
)

func baseSpec() jobspec.Spec {
	return jobspec.Spec{
		Title:          "Senior Backend Engineer",
		RequiredSkills: []string{"Go", "PostgreSQL"},
		Weights:        map[string]float64{"skills": 0.6, "experience": 0.4},
	}
}

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint("Jane Doe\nGo developer", baseSpec(), "balanced")
	b := Fingerprint("Jane Doe\nGo developer", baseSpec(), "balanced")
	if a != b {
		t.Fatalf("same inputs produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", a)
	}
}

func TestFingerprintIgnoresWhitespaceAndModeCase(t *testing.T) {
	a := Fingerprint("Jane Doe   Go developer", baseSpec(), "balanced")
	b := Fingerprint("  Jane Doe\n\tGo   developer  ", baseSpec(), " Balanced ")
	if a != b {
		t.Fatal("whitespace and mode casing must not change the fingerprint")
	}
}

func TestFingerprintChangesWithEachInput(t *testing.T) {
	base := Fingerprint("Jane Doe", baseSpec(), "balanced")

	if Fingerprint("John Doe", baseSpec(), "balanced") == base {
		t.Fatal("document change must change the fingerprint")
	}

	altered := baseSpec()
	altered.Title = "Staff Engineer"
	if Fingerprint("Jane Doe", altered, "balanced") == base {
		t.Fatal("spec change must change the fingerprint")
	}

	if Fingerprint("Jane Doe", baseSpec(), "premium") == base {
		t.Fatal("mode change must change the fingerprint")
	}
}

func TestFingerprintWeightOrderIrrelevant(t *testing.T) {
	a := baseSpec()
	b := baseSpec()
	b.Weights = map[string]float64{"experience": 0.4, "skills": 0.6}
	if Fingerprint("Jane Doe", a, "eco") != Fingerprint("Jane Doe", b, "eco") {
		t.Fatal("weight map ordering must not change the fingerprint")
	}
}
