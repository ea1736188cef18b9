// Package logging assembles the structured slog loggers used across the
// scoring pipeline.
//
// It centralizes level and format plumbing and exposes context-aware helpers
// so executor and node code automatically tag log lines with run IDs, node
// names, and correlation IDs. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
