package loadgen

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"chaosdrive/internal/config"
	"chaosdrive/internal/metrics"
)

// Driver runs a fixed number of virtual users for the configured
// duration (closed model: each VU iterates as its pacing allows).
//
// Shutdown is two-phase: when the duration elapses no new iterations
// start, but in-flight requests get the configured grace period to
// finish before their context is cancelled outright.
type Driver struct {
	cfg     *config.Config
	client  *http.Client
	metrics *metrics.Engine

	// startTime is written by Run and read by Progress/Elapsed from
	// other goroutines.
	startTime   time.Time
	startTimeMu sync.RWMutex

	activeVUs  atomic.Int32
	iterations atomic.Int64
	running    atomic.Bool

	wg sync.WaitGroup
}

// NewDriver creates a driver for the given run configuration.
func NewDriver(cfg *config.Config, engine *metrics.Engine) *Driver {
	return &Driver{
		cfg:     cfg,
		client:  NewHTTPClient(DefaultHTTPClientConfig(cfg.Timeout)),
		metrics: engine,
	}
}

// Run spawns the virtual users and blocks until the run duration has
// elapsed and all VUs have stopped. Cancelling ctx ends the run early,
// cancelling in-flight requests as well.
func (d *Driver) Run(ctx context.Context) error {
	d.startTimeMu.Lock()
	d.startTime = time.Now()
	d.startTimeMu.Unlock()
	d.running.Store(true)
	defer d.running.Store(false)

	// runCtx gates starting new iterations; reqCtx is what requests run
	// under, so in-flight work survives the duration boundary.
	runCtx, stopScheduling := context.WithTimeout(ctx, d.cfg.Duration)
	defer stopScheduling()
	reqCtx, hardCancel := context.WithCancel(ctx)
	defer hardCancel()

	for i := 0; i < d.cfg.VUs; i++ {
		vu := NewVirtualUser(i+1, d.cfg.URL, d.cfg.Chaos, d.client, d.metrics)
		d.wg.Add(1)
		go d.runVU(runCtx, reqCtx, vu)
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return ctx.Err()
	case <-runCtx.Done():
	}

	// Duration elapsed (or the caller cancelled). Give in-flight
	// requests the grace period, then cut them off.
	select {
	case <-done:
	case <-time.After(d.cfg.GracefulStop):
		hardCancel()
		<-done
	}
	return ctx.Err()
}

// runVU is the per-VU loop: iterate, pace, repeat until the run ends.
func (d *Driver) runVU(runCtx, reqCtx context.Context, vu *VirtualUser) {
	defer d.wg.Done()

	d.metrics.SetActiveVUs(int(d.activeVUs.Add(1)))
	defer func() {
		d.metrics.SetActiveVUs(int(d.activeVUs.Add(-1)))
	}()

	for {
		select {
		case <-runCtx.Done():
			return
		default:
		}

		// Failures are recorded outcomes; only cancellation stops the loop.
		if err := vu.RunIteration(reqCtx); err != nil {
			return
		}
		d.iterations.Add(1)

		select {
		case <-runCtx.Done():
			return
		case <-time.After(d.cfg.Pacing):
		}
	}
}

// ActiveVUs returns the number of currently running virtual users.
func (d *Driver) ActiveVUs() int {
	return int(d.activeVUs.Load())
}

// Iterations returns the number of completed iterations.
func (d *Driver) Iterations() int64 {
	return d.iterations.Load()
}

// Progress returns run progress from 0.0 to 1.0.
func (d *Driver) Progress() float64 {
	start := d.started()
	if !d.running.Load() {
		if start.IsZero() {
			return 0.0
		}
		return 1.0
	}
	if start.IsZero() {
		return 0.0
	}

	progress := float64(time.Since(start)) / float64(d.cfg.Duration)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// Elapsed returns time since the run started.
func (d *Driver) Elapsed() time.Duration {
	start := d.started()
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

func (d *Driver) started() time.Time {
	d.startTimeMu.RLock()
	defer d.startTimeMu.RUnlock()
	return d.startTime
}
