package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sift/internal/consensus"
	"sift/internal/report"
	"sift/internal/workflow"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Cache contains result-cache configuration.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// InflightGuard serializes concurrent runs sharing a fingerprint with a
	// file lock so they do not duplicate provider calls.
	InflightGuard bool   `toml:"inflight_guard"`
	GuardDir      string `toml:"guard_dir"`
}

// Pipeline contains traversal and retry configuration.
type Pipeline struct {
	DefaultMode        string `toml:"default_mode"`
	EnablePrefilter    bool   `toml:"enable_prefilter"`
	EnablePacking      bool   `toml:"enable_packing"`
	MaxAttempts        int    `toml:"max_attempts"`
	RetryBaseDelayMS   int    `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS    int    `toml:"retry_max_delay_ms"`
	NodeTimeoutSeconds int    `toml:"node_timeout_seconds"`
}

// Consensus contains the spread thresholds and primary-provider weighting.
type Consensus struct {
	StrongSpreadMax float64 `toml:"strong_spread_max"`
	WeakSpreadMin   float64 `toml:"weak_spread_min"`
	PrimaryWeight   float64 `toml:"primary_weight"`
}

// Recommendation contains the score bands for hiring suggestions.
type Recommendation struct {
	StrongYesMin float64 `toml:"strong_yes_min"`
	YesMin       float64 `toml:"yes_min"`
	MaybeMin     float64 `toml:"maybe_min"`
}

// Provider describes one configured scoring provider.
type Provider struct {
	ID             string  `toml:"id"`
	Role           string  `toml:"role"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Weight         float64 `toml:"weight"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Provider roles.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
	RoleArbiter   = "arbiter"
)

// Modes gate optional pipeline nodes by cost/thoroughness tier.
const (
	ModeEco      = "eco"
	ModeBalanced = "balanced"
	ModePremium  = "premium"
)

// Config centralizes every knob the CLI and pipeline need.
type Config struct {
	Logging        Logging        `toml:"logging"`
	Cache          Cache          `toml:"cache"`
	Pipeline       Pipeline       `toml:"pipeline"`
	Consensus      Consensus      `toml:"consensus"`
	Recommendation Recommendation `toml:"recommendation"`
	Providers      []Provider     `toml:"providers"`
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist and path was not explicitly requested.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := strings.TrimSpace(path) != ""
	resolved := resolvePath(path)

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize trims strings, lowercases enumerations, expands paths, and
// applies the SIFT_API_KEY environment fallback.
func (c *Config) Normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Cache.Path = expandPath(c.Cache.Path)
	c.Cache.GuardDir = expandPath(c.Cache.GuardDir)
	c.Pipeline.DefaultMode = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultMode))

	envKey := strings.TrimSpace(os.Getenv("SIFT_API_KEY"))
	for i := range c.Providers {
		p := &c.Providers[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Role = strings.ToLower(strings.TrimSpace(p.Role))
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.BaseURL = strings.TrimSpace(p.BaseURL)
		p.Model = strings.TrimSpace(p.Model)
		if p.APIKey == "" && envKey != "" {
			p.APIKey = envKey
		}
	}
}

// Validate reports structural configuration problems.
func (c *Config) Validate() error {
	switch c.Pipeline.DefaultMode {
	case ModeEco, ModeBalanced, ModePremium:
	default:
		return fmt.Errorf("config: default_mode must be one of eco, balanced, premium; got %q", c.Pipeline.DefaultMode)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return errors.New("config: max_attempts must be at least 1")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Consensus.PrimaryWeight <= 0 || c.Consensus.PrimaryWeight > 1 {
		return fmt.Errorf("config: primary_weight must be in (0, 1]; got %g", c.Consensus.PrimaryWeight)
	}
	if err := c.Bands().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	primaries, arbiters := 0, 0
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("config: providers[%d]: id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("config: duplicate provider id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Weight < 0 {
			return fmt.Errorf("config: provider %q: weight must not be negative", p.ID)
		}
		switch p.Role {
		case RolePrimary:
			primaries++
		case RoleSecondary:
		case RoleArbiter:
			arbiters++
		default:
			return fmt.Errorf("config: provider %q: role must be primary, secondary, or arbiter; got %q", p.ID, p.Role)
		}
	}
	if primaries != 1 {
		return fmt.Errorf("config: exactly one primary provider is required, found %d", primaries)
	}
	if arbiters > 1 {
		return fmt.Errorf("config: at most one arbiter provider is allowed, found %d", arbiters)
	}
	return nil
}

// Thresholds converts the consensus section into the aggregator's type.
func (c *Config) Thresholds() consensus.Thresholds {
	return consensus.Thresholds{
		StrongSpreadMax: c.Consensus.StrongSpreadMax,
		WeakSpreadMin:   c.Consensus.WeakSpreadMin,
	}
}

// Bands converts the recommendation section into the report's type.
func (c *Config) Bands() report.Bands {
	return report.Bands{
		StrongYesMin: c.Recommendation.StrongYesMin,
		YesMin:       c.Recommendation.YesMin,
		MaybeMin:     c.Recommendation.MaybeMin,
	}
}

// RetryPolicy converts the pipeline section into the executor's type.
func (c *Config) RetryPolicy() workflow.RetryPolicy {
	return workflow.RetryPolicy{
		MaxAttempts: c.Pipeline.MaxAttempts,
		BaseDelay:   time.Duration(c.Pipeline.RetryBaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.Pipeline.RetryMaxDelayMS) * time.Millisecond,
	}
}

// NodeTimeout returns the per-attempt budget for nodes calling providers.
func (c *Config) NodeTimeout() time.Duration {
	return time.Duration(c.Pipeline.NodeTimeoutSeconds) * time.Second
}

// ProviderByRole returns the providers holding the given role, in
// configuration order.
func (c *Config) ProviderByRole(role string) []Provider {
	var out []Provider
	for _, p := range c.Providers {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string { return sampleConfig }

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return expandPath("~/.config/sift/config.toml")
}

func resolvePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultPath()
	}
	return expandPath(trimmed)
}

func expandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
		}
	}
	return trimmed
}
