package lemonade

import (
	"context"
	"strings"
	"sync"
)

// Probe is one named endpoint fetch inside an overview fan-out.
type Probe struct {
	Label string
	Fetch func(context.Context) (*Response, error)
}

// ProbeResult is one slot of a fan-out: either a response or an error,
// never both, never neither.
type ProbeResult struct {
	Label    string
	Response *Response
	Err      error
}

// Failed reports whether the slot holds an error or an HTTP error status.
func (r ProbeResult) Failed() bool {
	return r.Err != nil || (r.Response != nil && !r.Response.OK())
}

// OverviewProbes returns the overview's probe set in render order.
// includeLive adds the bare-base liveness probe (lite variant).
func (c *Client) OverviewProbes(includeLive bool) []Probe {
	probes := []Probe{
		{Label: "Health", Fetch: c.Health},
		{Label: "Stats", Fetch: c.Stats},
		{Label: "System", Fetch: c.SystemInfo},
	}
	if includeLive {
		probes = append(probes, Probe{Label: "Live", Fetch: c.Live})
	}
	probes = append(probes, Probe{Label: "Models", Fetch: func(ctx context.Context) (*Response, error) {
		return c.Models(ctx, false)
	}})
	return probes
}

// FetchAll runs every probe concurrently and waits for all of them.
//
// The result slice is positionally aligned with probes regardless of
// completion order, and a failed probe fills its own slot instead of
// aborting the batch. Total latency tracks the slowest probe, not the sum.
func (c *Client) FetchAll(ctx context.Context, probes []Probe) []ProbeResult {
	results := make([]ProbeResult, len(probes))

	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			resp, err := p.Fetch(ctx)
			results[i] = ProbeResult{Label: p.Label, Response: resp, Err: err}
			if err != nil {
				c.metrics.RecordProbeFailure(strings.ToLower(p.Label))
			}
		}(i, p)
	}
	wg.Wait()

	return results
}
