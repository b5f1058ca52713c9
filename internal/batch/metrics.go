package batch

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// metricsWindow is how many recent job durations feed the latency summary.
const metricsWindow = 256

// Metrics counts fill jobs and summarizes the latency of recent ones.
// It is safe for concurrent use.
type Metrics struct {
	mu        sync.Mutex
	completed int64
	failed    int64
	documents int64
	durations []float64 // milliseconds, ring buffer
	next      int
}

// LatencySummary describes recent successful job durations in milliseconds.
type LatencySummary struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_ms"`
	P50     float64 `json:"p50_ms"`
	P95     float64 `json:"p95_ms"`
	Max     float64 `json:"max_ms"`
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Completed int64          `json:"jobs_completed"`
	Failed    int64          `json:"jobs_failed"`
	Documents int64          `json:"documents_filled"`
	Latency   LatencySummary `json:"latency"`
}

// NewMetrics returns empty metrics.
func NewMetrics() *Metrics {
	return &Metrics{durations: make([]float64, 0, metricsWindow)}
}

// Record adds one finished job.
func (m *Metrics) Record(res Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.failed++
		return
	}
	m.completed++
	m.documents += int64(res.Documents)

	ms := float64(res.Duration) / float64(time.Millisecond)
	if len(m.durations) < metricsWindow {
		m.durations = append(m.durations, ms)
		return
	}
	m.durations[m.next] = ms
	m.next = (m.next + 1) % metricsWindow
}

// Snapshot returns the current counters and latency summary.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	snap := MetricsSnapshot{
		Completed: m.completed,
		Failed:    m.failed,
		Documents: m.documents,
	}
	data := stats.Float64Data(append([]float64(nil), m.durations...))
	m.mu.Unlock()

	snap.Latency = summarize(data)
	return snap
}

func summarize(data stats.Float64Data) LatencySummary {
	sum := LatencySummary{Samples: data.Len()}
	if sum.Samples == 0 {
		return sum
	}
	// Errors only occur on empty input, handled above.
	sum.Mean, _ = stats.Mean(data)
	sum.P50, _ = stats.Median(data)
	sum.P95, _ = stats.Percentile(data, 95)
	sum.Max, _ = stats.Max(data)
	return sum
}
