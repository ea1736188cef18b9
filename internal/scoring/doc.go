// Package scoring assembles the document-scoring workflow from the generic
// graph engine and exposes the single entry point callers use to score a
// document against a job spec.
//
// The pipeline is a fixed graph built once per process: fingerprint the
// input, try the cache, extract and validate a structured profile, apply
// must-have gating rules, compress the profile, collect one or more provider
// opinions, reconcile them into a consensus (arbitrating weak agreement),
// snapshot what was applied, cache the outcome, and assemble the final
// result. Each incoming job gets a fresh State and a fresh traversal over
// the shared definition.
package scoring
