package common

import "strings"

// CacheKeyPrefix namespaces history windows in shared cache stores.
const CacheKeyPrefix = "station_cache:"

// NormalizeName lower-cases a station name and replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// CacheKey returns the history cache key for a station name.
func CacheKey(stationName string) string {
	return CacheKeyPrefix + NormalizeName(stationName)
}
