package analytics

import (
	"sort"
	"time"

	"coinit/internal/store/ledger"
)

// Bucket counts one hour of publish attempts by stage and outcome.
type Bucket struct {
	OK     map[string]int
	Failed map[string]int
}

// HourlyPublications aggregates ledger rows into UTC hour buckets.
func HourlyPublications(pubs []ledger.Publication) map[time.Time]Bucket {
	buckets := make(map[time.Time]Bucket)
	for _, p := range pubs {
		ts := p.TS.UTC()
		key := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC)
		b, ok := buckets[key]
		if !ok {
			b = Bucket{OK: map[string]int{}, Failed: map[string]int{}}
			buckets[key] = b
		}
		if p.Error == "" {
			b.OK[p.Stage]++
		} else {
			b.Failed[p.Stage]++
		}
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]Bucket) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
