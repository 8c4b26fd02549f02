package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"nearby-jobs/internal/search"
)

const (
	nearbyKeyPrefix  = "jobs:nearby:"
	nearbyLockPrefix = "jobs:nearby:lock:"
)

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// Fingerprint is the hex sha256 of the spec's canonical JSON. Specs built by
// the Composer are already canonical.
func Fingerprint(spec search.QuerySpec) string {
	if spec.Filters == nil {
		spec.Filters = []search.Filter{}
	}
	b, _ := json.Marshal(spec)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func NearbyCacheKey(spec search.QuerySpec) string {
	return nearbyKeyPrefix + Fingerprint(spec)
}

func NearbyLockKey(cacheKey string) string {
	cacheKey = strings.TrimSpace(cacheKey)
	return nearbyLockPrefix + strings.TrimPrefix(cacheKey, nearbyKeyPrefix)
}
