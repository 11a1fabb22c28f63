// Package metrics records per-request outcomes and aggregates them for
// the end-of-run summary.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Engine collects request outcomes from all virtual users.
//
// Latencies go into an HDR histogram (1µs to 10min, 3 significant
// figures) so percentiles stay accurate under high request counts.
// Counters use atomics; the histogram and the status-code map take a
// mutex. Safe for concurrent use.
type Engine struct {
	latencyHist *hdrhistogram.Histogram
	histMu      sync.Mutex

	total  atomic.Int64
	failed atomic.Int64
	bytes  atomic.Int64

	statusCodes map[int]int64
	statusMu    sync.Mutex

	activeVUs atomic.Int32

	startTime time.Time
}

const (
	histogramMin     = int64(1)                // 1 microsecond
	histogramMax     = int64(10 * time.Minute / time.Microsecond)
	histogramSigFigs = 3
)

// NewEngine creates an engine. The run clock starts immediately.
func NewEngine() *Engine {
	return &Engine{
		latencyHist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statusCodes: make(map[int]int64),
		startTime:   time.Now(),
	}
}

// RecordRequest records one completed iteration.
//
// A request counts as failed when err is non-nil (transport error or
// timeout) or the status code is >= 400. Transport failures carry a
// status code of 0 and are not added to the status-code breakdown.
func (e *Engine) RecordRequest(duration time.Duration, statusCode int, err error, bytesReceived int64) {
	e.total.Add(1)
	e.bytes.Add(bytesReceived)

	if err != nil || statusCode >= 400 {
		e.failed.Add(1)
	}

	e.histMu.Lock()
	// RecordValue only fails for out-of-range values; clamp instead.
	us := duration.Microseconds()
	if us < histogramMin {
		us = histogramMin
	} else if us > histogramMax {
		us = histogramMax
	}
	e.latencyHist.RecordValue(us)
	e.histMu.Unlock()

	if statusCode > 0 {
		e.statusMu.Lock()
		e.statusCodes[statusCode]++
		e.statusMu.Unlock()
	}
}

// SetActiveVUs updates the active virtual user gauge.
func (e *Engine) SetActiveVUs(n int) {
	e.activeVUs.Store(int32(n))
}

// ActiveVUs returns the current active virtual user count.
func (e *Engine) ActiveVUs() int {
	return int(e.activeVUs.Load())
}

// TotalRequests returns the number of completed iterations so far.
func (e *Engine) TotalRequests() int64 {
	return e.total.Load()
}

// LatencyStats summarizes the latency distribution.
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// Snapshot is a point-in-time aggregate of everything recorded so far.
type Snapshot struct {
	TotalRequests  int64         `json:"totalRequests"`
	FailedRequests int64         `json:"failedRequests"`
	ErrorRate      float64       `json:"errorRate"`
	BytesReceived  int64         `json:"bytesReceived"`
	Elapsed        time.Duration `json:"elapsed"`
	RequestsPerSec float64       `json:"requestsPerSec"`
	Latency        LatencyStats  `json:"latency"`
	StatusCodes    map[int]int64 `json:"statusCodes"`
}

// Snapshot aggregates the recorded outcomes. Safe to call while the run
// is still in progress.
func (e *Engine) Snapshot() *Snapshot {
	total := e.total.Load()
	failed := e.failed.Load()
	elapsed := time.Since(e.startTime)

	snap := &Snapshot{
		TotalRequests:  total,
		FailedRequests: failed,
		BytesReceived:  e.bytes.Load(),
		Elapsed:        elapsed,
		StatusCodes:    make(map[int]int64),
	}

	if total > 0 {
		snap.ErrorRate = float64(failed) / float64(total)
	}
	if elapsed > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	e.histMu.Lock()
	if e.latencyHist.TotalCount() > 0 {
		snap.Latency = LatencyStats{
			Min:  time.Duration(e.latencyHist.Min()) * time.Microsecond,
			Max:  time.Duration(e.latencyHist.Max()) * time.Microsecond,
			Mean: time.Duration(e.latencyHist.Mean()) * time.Microsecond,
			P50:  time.Duration(e.latencyHist.ValueAtQuantile(50)) * time.Microsecond,
			P90:  time.Duration(e.latencyHist.ValueAtQuantile(90)) * time.Microsecond,
			P95:  time.Duration(e.latencyHist.ValueAtQuantile(95)) * time.Microsecond,
			P99:  time.Duration(e.latencyHist.ValueAtQuantile(99)) * time.Microsecond,
		}
	}
	e.histMu.Unlock()

	e.statusMu.Lock()
	for code, count := range e.statusCodes {
		snap.StatusCodes[code] = count
	}
	e.statusMu.Unlock()

	return snap
}
