package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfigTOML() string {
	return `
[pipeline]
default_mode = "balanced"
max_attempts = 2
retry_base_delay_ms = 500
retry_max_delay_ms = 5000
node_timeout_seconds = 60

[[providers]]
id = "primary"
role = "primary"
api_key = "key-1"
model = "vendor/model-a"

[[providers]]
id = "second"
role = "secondary"
api_key = "key-2"
model = "vendor/model-b"
weight = 0.25
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsUnderFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigTOML()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("default log level missing: %q", cfg.Logging.Level)
	}
	if cfg.Consensus.StrongSpreadMax != 10 || cfg.Consensus.WeakSpreadMin != 25 {
		t.Fatalf("default thresholds missing: %+v", cfg.Consensus)
	}
	if cfg.Recommendation.StrongYesMin != 85 {
		t.Fatalf("default bands missing: %+v", cfg.Recommendation)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers = %+v", cfg.Providers)
	}
}

func TestLoadExplicitMissingPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("explicitly requested missing config must fail")
	}
}

func TestNormalizeAppliesEnvAPIKeyFallback(t *testing.T) {
	t.Setenv("SIFT_API_KEY", "env-key")
	content := strings.ReplaceAll(validConfigTOML(), `api_key = "key-2"`, "")
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, p := range cfg.Providers {
		if p.ID == "second" && p.APIKey != "env-key" {
			t.Fatalf("env fallback not applied: %+v", p)
		}
		if p.ID == "primary" && p.APIKey != "key-1" {
			t.Fatalf("explicit key overridden: %+v", p)
		}
	}
}

func TestValidateProviderRoles(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no primary",
			mutate:  func(c *Config) { c.Providers[0].Role = RoleSecondary },
			wantErr: "exactly one primary",
		},
		{
			name: "two primaries",
			mutate: func(c *Config) {
				c.Providers = append(c.Providers, Provider{ID: "p2", Role: RolePrimary, APIKey: "k", Model: "m"})
			},
			wantErr: "exactly one primary",
		},
		{
			name: "two arbiters",
			mutate: func(c *Config) {
				c.Providers = append(c.Providers,
					Provider{ID: "a1", Role: RoleArbiter, APIKey: "k", Model: "m"},
					Provider{ID: "a2", Role: RoleArbiter, APIKey: "k", Model: "m"})
			},
			wantErr: "at most one arbiter",
		},
		{
			name:    "duplicate id",
			mutate:  func(c *Config) { c.Providers[1].ID = "primary" },
			wantErr: "duplicate provider id",
		},
		{
			name:    "unknown role",
			mutate:  func(c *Config) { c.Providers[1].Role = "observer" },
			wantErr: "role must be",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Providers[1].Weight = -0.5 },
			wantErr: "weight must not be negative",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfigTOML()))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRejectsBadEnumsAndOrdering(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigTOML()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	broken := *cfg
	broken.Pipeline.DefaultMode = "turbo"
	if err := broken.Validate(); err == nil {
		t.Fatal("bad mode accepted")
	}

	broken = *cfg
	broken.Consensus.StrongSpreadMax = 30
	if err := broken.Validate(); err == nil {
		t.Fatal("misordered spread thresholds accepted")
	}

	broken = *cfg
	broken.Recommendation.YesMin = 90
	if err := broken.Validate(); err == nil {
		t.Fatal("misordered recommendation bands accepted")
	}
}

func TestConverters(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigTOML()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	retry := cfg.RetryPolicy()
	if retry.MaxAttempts != 2 || retry.BaseDelay != 500*time.Millisecond || retry.MaxDelay != 5*time.Second {
		t.Fatalf("retry = %+v", retry)
	}
	if cfg.NodeTimeout() != time.Minute {
		t.Fatalf("node timeout = %s", cfg.NodeTimeout())
	}
	if got := cfg.ProviderByRole(RoleSecondary); len(got) != 1 || got[0].ID != "second" {
		t.Fatalf("ProviderByRole = %+v", got)
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg, err := Load(writeConfig(t, SampleConfig()))
	if err != nil {
		t.Fatalf("sample config must load cleanly: %v", err)
	}
	if len(cfg.Providers) == 0 {
		t.Fatal("sample config should include example providers")
	}
}
