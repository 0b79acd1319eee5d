package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Metrics collects application metrics. Retargeted from the teacher's
// OrgID-scoped RequestLabels to this gateway's tenant/model/provider/
// status dimensions.
type Metrics interface {
	RecordRequest(ctx context.Context, labels RequestLabels)
	RecordLatency(ctx context.Context, durationMs float64, labels RequestLabels)
	RecordTokens(ctx context.Context, input, output int, labels RequestLabels)
	RecordCost(ctx context.Context, cost float64, labels RequestLabels)
	// WriteExposition renders the current counters in Prometheus text
	// exposition format for the /metrics endpoint (spec §6).
	WriteExposition(w *strings.Builder)
}

// RequestLabels are the metric dimensions attached to each recorded
// observation.
type RequestLabels struct {
	TenantID string
	Model    string
	Provider string
	Status   string
}

func (l RequestLabels) prometheus() string {
	return fmt.Sprintf(`tenant_id="%s",model="%s",provider="%s",status="%s"`, l.TenantID, l.Model, l.Provider, l.Status)
}

type counters struct {
	requests     int64
	latencySumMs float64
	latencyCount int64
	tokensInput  int64
	tokensOutput int64
	costTotal    float64
}

// collector is a minimal in-process Prometheus-compatible metrics store.
// Prometheus export is named in spec §1 as an out-of-scope external
// collaborator interface, and no example in the retrieved pack imports
// client_golang, so this hand-rolls the small subset of the text
// exposition format the gateway's counters need instead of wiring a
// client library for a component the core does not otherwise touch.
type collector struct {
	mu      sync.Mutex
	byLabel map[RequestLabels]*counters
}

// NewMetrics constructs an in-process Metrics collector.
func NewMetrics() Metrics {
	return &collector{byLabel: make(map[RequestLabels]*counters)}
}

func (c *collector) entry(labels RequestLabels) *counters {
	// Caller holds c.mu.
	e, ok := c.byLabel[labels]
	if !ok {
		e = &counters{}
		c.byLabel[labels] = e
	}
	return e
}

func (c *collector) RecordRequest(_ context.Context, labels RequestLabels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(labels).requests++
}

func (c *collector) RecordLatency(_ context.Context, durationMs float64, labels RequestLabels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(labels)
	e.latencySumMs += durationMs
	e.latencyCount++
}

func (c *collector) RecordTokens(_ context.Context, input, output int, labels RequestLabels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(labels)
	e.tokensInput += int64(input)
	e.tokensOutput += int64(output)
}

func (c *collector) RecordCost(_ context.Context, cost float64, labels RequestLabels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(labels).costTotal += cost
}

// WriteExposition renders every counter as Prometheus text exposition,
// one metric family per field, ordered by label set for deterministic
// output.
func (c *collector) WriteExposition(w *strings.Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	labels := make([]RequestLabels, 0, len(c.byLabel))
	for l := range c.byLabel {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].prometheus() < labels[j].prometheus() })

	writeFamily(w, "gateway_requests_total", "counter", labels, func(l RequestLabels) float64 { return float64(c.byLabel[l].requests) })
	writeFamily(w, "gateway_request_latency_ms_sum", "counter", labels, func(l RequestLabels) float64 { return c.byLabel[l].latencySumMs })
	writeFamily(w, "gateway_request_latency_ms_count", "counter", labels, func(l RequestLabels) float64 { return float64(c.byLabel[l].latencyCount) })
	writeFamily(w, "gateway_tokens_input_total", "counter", labels, func(l RequestLabels) float64 { return float64(c.byLabel[l].tokensInput) })
	writeFamily(w, "gateway_tokens_output_total", "counter", labels, func(l RequestLabels) float64 { return float64(c.byLabel[l].tokensOutput) })
	writeFamily(w, "gateway_cost_total", "counter", labels, func(l RequestLabels) float64 { return c.byLabel[l].costTotal })
}

func writeFamily(w *strings.Builder, name, typ string, labels []RequestLabels, value func(RequestLabels) float64) {
	if len(labels) == 0 {
		return
	}
	fmt.Fprintf(w, "# TYPE %s %s\n", name, typ)
	for _, l := range labels {
		fmt.Fprintf(w, "%s{%s} %g\n", name, l.prometheus(), value(l))
	}
}
