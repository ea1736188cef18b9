// Package scorecache persists final scoring results keyed by content
// fingerprint so identical inputs can skip the provider calls entirely.
//
// Caching is read-through and best-effort: a read failure is treated as a
// miss and a write failure never fails the run. The SQLite store is the
// production backend; the in-memory store backs tests and cache-disabled
// runs. The optional in-flight guard serializes concurrent runs over the
// same fingerprint with a file lock, for callers that want to avoid
// duplicate provider spend.
package scorecache
