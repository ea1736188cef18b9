// Package candidate models the structured profile produced by the extraction
// provider from raw document text, plus the structural validation applied
// before any scoring happens.
package candidate
