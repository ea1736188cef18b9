package scoring

import (
	"math"
	"testing"

	"sift/internal/config"
)

func TestWeightsFromConfigExplicitWeightsWin(t *testing.T) {
	cfg := &config.Config{
		Consensus: config.Consensus{PrimaryWeight: 0.5},
		Providers: []config.Provider{
			{ID: "primary", Role: config.RolePrimary, Weight: 0.6},
			{ID: "second", Role: config.RoleSecondary, Weight: 0.4},
		},
	}
	weights := weightsFromConfig(cfg)
	if weights["primary"] != 0.6 || weights["second"] != 0.4 {
		t.Fatalf("weights = %v", weights)
	}
}

func TestWeightsFromConfigSecondariesSplitRemainder(t *testing.T) {
	cfg := &config.Config{
		Consensus: config.Consensus{PrimaryWeight: 0.5},
		Providers: []config.Provider{
			{ID: "primary", Role: config.RolePrimary},
			{ID: "a", Role: config.RoleSecondary},
			{ID: "b", Role: config.RoleSecondary},
			{ID: "referee", Role: config.RoleArbiter},
		},
	}
	weights := weightsFromConfig(cfg)
	if weights["primary"] != 0.5 {
		t.Fatalf("primary weight = %v", weights["primary"])
	}
	if math.Abs(weights["a"]-0.25) > 1e-9 || math.Abs(weights["b"]-0.25) > 1e-9 {
		t.Fatalf("secondaries = %v", weights)
	}
	if _, ok := weights["referee"]; ok {
		t.Fatal("arbiter must carry no vote weight")
	}
}

func TestWeightsFromConfigMixedExplicitAndDerived(t *testing.T) {
	cfg := &config.Config{
		Consensus: config.Consensus{PrimaryWeight: 0.5},
		Providers: []config.Provider{
			{ID: "primary", Role: config.RolePrimary},
			{ID: "a", Role: config.RoleSecondary, Weight: 0.3},
			{ID: "b", Role: config.RoleSecondary},
		},
	}
	weights := weightsFromConfig(cfg)
	if math.Abs(weights["b"]-0.2) > 1e-9 {
		t.Fatalf("unweighted secondary should take the leftover 0.2, got %v", weights["b"])
	}
}

func TestParseModeDefaultsToBalanced(t *testing.T) {
	cases := map[string]Mode{
		"eco":      ModeEco,
		" Premium": ModePremium,
		"balanced": ModeBalanced,
		"":         ModeBalanced,
		"turbo":    ModeBalanced,
	}
	for input, want := range cases {
		if got := ParseMode(input); got != want {
			t.Fatalf("ParseMode(%q) = %s, want %s", input, got, want)
		}
	}
}
