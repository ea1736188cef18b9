// Package jobspec models the caller-supplied job specification: the role
// being hired for, its must-have gating rules, and the skills the scoring
// providers are asked to weigh.
//
// The spec is treated as opaque configuration by the workflow engine; only
// the prefilter node and the provider prompts interpret it. Canonical()
// produces a stable serialization so identical specs fingerprint identically
// across runs.
package jobspec
