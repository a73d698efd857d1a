package common

import "testing"

func TestCacheKey(t *testing.T) {
	cases := map[string]string{
		"Budapest Met Center": "station_cache:budapest_met_center",
		"Debrecen":            "station_cache:debrecen",
		"Tat / Mogyorósbánya": "station_cache:tat_/_mogyorósbánya",
	}
	for name, want := range cases {
		if got := CacheKey(name); got != want {
			t.Errorf("CacheKey(%q) = %q, want %q", name, got, want)
		}
	}
}
