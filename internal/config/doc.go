// Package config loads, normalizes, and validates the pipeline
// configuration: provider tables, consensus thresholds, recommendation
// bands, cache settings, and logging knobs.
//
// It supplies repository defaults, expands tilde paths, reads TOML files,
// and honours the SIFT_API_KEY environment fallback for providers without an
// inline key. Always obtain settings through this package so downstream code
// receives sanitized values and clear validation errors.
package config
