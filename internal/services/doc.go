// Package services defines the shared error taxonomy and context plumbing
// used across the scoring pipeline.
//
// Errors raised by node handlers and external collaborators are tagged with
// one of the exported sentinel markers so the executor and callers can
// classify failures (validation vs. provider vs. timeout vs. assembly bugs)
// without string matching. The context helpers carry run identifiers and the
// current node name so log lines emitted deep inside a handler stay
// correlated with the run that produced them.
package services
