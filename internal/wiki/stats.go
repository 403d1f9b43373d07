package wiki

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
}

// StatsSnapshot aggregates recent call latencies for one endpoint.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// LatencyStats keeps upstream call latencies per endpoint within a
// rolling window.
type LatencyStats struct {
	mu      sync.Mutex
	samples map[string][]sample
	window  time.Duration
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{
		samples: make(map[string][]sample),
		window:  window,
	}
}

// Record adds one call duration for endpoint.
func (s *LatencyStats) Record(endpoint string, durationMs int64) {
	if s == nil {
		return
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.prune(endpoint, now)
	s.samples[endpoint] = append(kept, sample{at: now, durationMs: max(durationMs, 0)})
}

// Snapshot returns per-endpoint aggregates; endpoints with no samples in
// the window are omitted.
func (s *LatencyStats) Snapshot() map[string]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.samples))
	for endpoint := range s.samples {
		kept := s.prune(endpoint, now)
		if len(kept) == 0 {
			delete(s.samples, endpoint)
			continue
		}
		s.samples[endpoint] = kept

		values := make([]int64, len(kept))
		var sum int64
		for i, sm := range kept {
			values[i] = sm.durationMs
			sum += sm.durationMs
		}
		slices.Sort(values)
		out[endpoint] = StatsSnapshot{
			Count: len(values),
			MinMs: values[0],
			MaxMs: values[len(values)-1],
			AvgMs: float64(sum) / float64(len(values)),
			P50Ms: percentile(values, 50),
			P95Ms: percentile(values, 95),
		}
	}
	return out
}

// prune drops samples older than the window. Callers hold mu.
func (s *LatencyStats) prune(endpoint string, now time.Time) []sample {
	cutoff := now.Add(-s.window)
	cur := s.samples[endpoint]
	i := 0
	for i < len(cur) && cur[i].at.Before(cutoff) {
		i++
	}
	return cur[i:]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := float64(len(sorted)-1) * pct / 100
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*frac
}
