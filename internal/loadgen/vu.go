// Package loadgen runs the virtual-user request loop.
package loadgen

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"chaosdrive/internal/chaos"
	"chaosdrive/internal/metrics"
)

// VirtualUser is one simulated client. Each VU loops independently:
// build the request target, issue a GET, record the outcome, sleep the
// pacing interval. VUs share the immutable configuration and a pooled
// HTTP client; they hold no mutable state of their own beyond counters.
type VirtualUser struct {
	// ID identifies this VU in results.
	ID int

	baseURL string
	spec    chaos.Spec
	client  *http.Client
	metrics *metrics.Engine

	iterations atomic.Int64
}

// NewVirtualUser creates a virtual user.
func NewVirtualUser(id int, baseURL string, spec chaos.Spec, client *http.Client, engine *metrics.Engine) *VirtualUser {
	return &VirtualUser{
		ID:      id,
		baseURL: baseURL,
		spec:    spec,
		client:  client,
		metrics: engine,
	}
}

// Iterations returns how many iterations this VU has started.
func (vu *VirtualUser) Iterations() int64 {
	return vu.iterations.Load()
}

// RunIteration issues a single GET against the target and records the
// outcome. The response is drained and discarded; nothing branches on
// its content. A failed request is an outcome, not an error of the
// loop, so the only returned error is context cancellation.
func (vu *VirtualUser) RunIteration(ctx context.Context) error {
	vu.iterations.Add(1)

	target := chaos.AppendToURL(vu.baseURL, vu.spec)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		vu.metrics.RecordRequest(time.Since(start), 0, err, 0)
		return nil
	}

	resp, err := vu.client.Do(req)
	if err != nil {
		vu.metrics.RecordRequest(time.Since(start), 0, err, 0)
		return ctx.Err()
	}

	// Drain the body so the connection goes back to the pool.
	received, _ := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	vu.metrics.RecordRequest(time.Since(start), resp.StatusCode, nil, received)
	return ctx.Err()
}
