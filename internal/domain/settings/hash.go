package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns a stable hex digest of every setting. Index and feature sets are
// sorted first, so iteration order never changes the digest.
func (s Settings) Hash() string {
	var numResults *int
	if s.NumResults != nil {
		n := *s.NumResults
		numResults = &n
	}
	key := []any{
		s.APIKey,
		s.Indices.Strings(),
		s.Phrases,
		s.Slop,
		s.Features.Names(),
		s.FilterUnknown,
		numResults,
		s.PageSize,
		s.Retries,
		s.Backoff.Seconds(),
		s.Verbose,
		s.Staging,
	}
	// Marshal cannot fail for these value types.
	data, _ := json.Marshal(key)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
