package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores raw provider responses (PubMed XML/JSON) so repeated runs
// over the same roster do not re-fetch unchanged data
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a canonical request URL. Callers
// strip credentials and etiquette parameters before keying, so the same
// logical request hits the same entry regardless of API key.
func Key(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return "pubscreen:v1:" + hex.EncodeToString(hash[:])
}
