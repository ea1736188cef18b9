package contentid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"sift/internal/jobspec"
)

// Fingerprint computes the cache key for one scoring input. The key covers
// the normalized document text, the canonical job spec, and the requested
// mode, since any of the three changes the outcome.
func Fingerprint(documentText string, spec jobspec.Spec, mode string) string {
	hasher := sha256.New()
	hasher.Write([]byte(normalizeText(documentText)))
	hasher.Write([]byte{0})
	hasher.Write([]byte(spec.Canonical()))
	hasher.Write([]byte{0})
	hasher.Write([]byte(strings.ToLower(strings.TrimSpace(mode))))
	return hex.EncodeToString(hasher.Sum(nil))
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
