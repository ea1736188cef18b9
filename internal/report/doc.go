// Package report defines the final result handed back to callers: the
// reconciled score, the recommendation band it falls into, the rationale,
// and the audit snapshot recording what was actually applied during the run.
package report
