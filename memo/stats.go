package memo

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Stats holds per-function cache counters. All counters are atomic; a
// consistent view is obtained via Snapshot.
type Stats struct {
	hits    atomic.Int64
	misses  atomic.Int64
	writes  atomic.Int64
	deletes atomic.Int64
	corrupt atomic.Int64
}

// Snapshot captures the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Writes:  s.writes.Load(),
		Deletes: s.deletes.Load(),
		Corrupt: s.corrupt.Load(),
	}
}

// StatsSnapshot is a point-in-time view of a function's cache counters.
type StatsSnapshot struct {
	Hits    int64
	Misses  int64
	Writes  int64
	Deletes int64
	Corrupt int64
}

// HitRate returns hits over lookups, or 0 with no lookups yet.
func (s StatsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("hits=%s misses=%s writes=%s deletes=%s corrupt=%s hit_rate=%.1f%%",
		humanize.Comma(s.Hits),
		humanize.Comma(s.Misses),
		humanize.Comma(s.Writes),
		humanize.Comma(s.Deletes),
		humanize.Comma(s.Corrupt),
		s.HitRate()*100,
	)
}
