// Package contentid derives deterministic fingerprints from scoring inputs.
//
// The fingerprint keys the result cache: two runs over the same document,
// job spec, and mode produce the same key and can reuse each other's final
// result. Whitespace in the document is collapsed first so cosmetic
// differences do not defeat caching.
package contentid
