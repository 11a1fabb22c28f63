package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RecordRequest(t *testing.T) {
	e := NewEngine()

	e.RecordRequest(10*time.Millisecond, 200, nil, 128)
	e.RecordRequest(20*time.Millisecond, 200, nil, 128)
	e.RecordRequest(30*time.Millisecond, 500, nil, 0)
	e.RecordRequest(40*time.Millisecond, 0, errors.New("connection refused"), 0)

	snap := e.Snapshot()
	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.FailedRequests)
	assert.Equal(t, 0.5, snap.ErrorRate)
	assert.Equal(t, int64(256), snap.BytesReceived)

	// Transport errors have no status code to count.
	assert.Equal(t, int64(2), snap.StatusCodes[200])
	assert.Equal(t, int64(1), snap.StatusCodes[500])
	assert.NotContains(t, snap.StatusCodes, 0)
}

func TestEngine_LatencyPercentiles(t *testing.T) {
	e := NewEngine()
	for i := 1; i <= 100; i++ {
		e.RecordRequest(time.Duration(i)*time.Millisecond, 200, nil, 0)
	}

	snap := e.Snapshot()
	require.NotZero(t, snap.Latency.P95)

	// HDR histograms are approximate to 3 significant figures.
	assert.InDelta(t, 50*time.Millisecond, float64(snap.Latency.P50), float64(2*time.Millisecond))
	assert.InDelta(t, 95*time.Millisecond, float64(snap.Latency.P95), float64(2*time.Millisecond))
	assert.GreaterOrEqual(t, snap.Latency.Max, snap.Latency.P99)
	assert.LessOrEqual(t, snap.Latency.Min, snap.Latency.P50)
}

func TestEngine_ClampsOutOfRangeLatency(t *testing.T) {
	e := NewEngine()
	e.RecordRequest(0, 200, nil, 0)
	e.RecordRequest(time.Hour, 200, nil, 0)

	snap := e.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.LessOrEqual(t, snap.Latency.Max, 10*time.Minute)
}

func TestEngine_EmptySnapshot(t *testing.T) {
	snap := NewEngine().Snapshot()
	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.ErrorRate)
	assert.Zero(t, snap.Latency.P95)
}

func TestEngine_ConcurrentRecording(t *testing.T) {
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.RecordRequest(5*time.Millisecond, 200, nil, 1)
			}
		}()
	}
	wg.Wait()

	snap := e.Snapshot()
	assert.Equal(t, int64(1000), snap.TotalRequests)
	assert.Equal(t, int64(1000), snap.BytesReceived)
}

func TestEngine_ActiveVUs(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 0, e.ActiveVUs())
	e.SetActiveVUs(42)
	assert.Equal(t, 42, e.ActiveVUs())
}
