// Package consensus reconciles disagreeing provider scores into one
// defensible number.
//
// Aggregation is a weighted mean over the successful providers; when a
// configured provider failed, its weight is redistributed proportionally
// over the survivors so weights always sum to 1.0. Disagreement is measured
// as the spread between the highest and lowest score and classified into
// strong, moderate, or weak agreement; only weak agreement warrants the
// costlier arbitration pass, whose score replaces the aggregate outright.
// Everything in this package is pure: no I/O, no clock, no randomness.
package consensus
