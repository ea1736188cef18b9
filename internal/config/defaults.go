package config

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"

	defaultCachePath = "~/.local/share/sift/score_cache.db"
	defaultGuardDir  = "~/.local/share/sift/locks"

	defaultMode               = ModeBalanced
	defaultMaxAttempts        = 2
	defaultRetryBaseDelayMS   = 500
	defaultRetryMaxDelayMS    = 5000
	defaultNodeTimeoutSeconds = 60

	defaultStrongSpreadMax = 10.0
	defaultWeakSpreadMin   = 25.0
	defaultPrimaryWeight   = 0.5

	defaultStrongYesMin = 85.0
	defaultYesMin       = 70.0
	defaultMaybeMin     = 50.0
)

// Default returns a Config populated with repository defaults. The provider
// table is intentionally empty; there is no sensible default vendor.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Cache: Cache{
			Enabled:  true,
			Path:     expandPath(defaultCachePath),
			GuardDir: expandPath(defaultGuardDir),
		},
		Pipeline: Pipeline{
			DefaultMode:        defaultMode,
			EnablePrefilter:    true,
			EnablePacking:      true,
			MaxAttempts:        defaultMaxAttempts,
			RetryBaseDelayMS:   defaultRetryBaseDelayMS,
			RetryMaxDelayMS:    defaultRetryMaxDelayMS,
			NodeTimeoutSeconds: defaultNodeTimeoutSeconds,
		},
		Consensus: Consensus{
			StrongSpreadMax: defaultStrongSpreadMax,
			WeakSpreadMin:   defaultWeakSpreadMin,
			PrimaryWeight:   defaultPrimaryWeight,
		},
		Recommendation: Recommendation{
			StrongYesMin: defaultStrongYesMin,
			YesMin:       defaultYesMin,
			MaybeMin:     defaultMaybeMin,
		},
	}
}
