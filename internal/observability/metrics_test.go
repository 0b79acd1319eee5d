package observability

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_WriteExposition(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()
	labels := RequestLabels{TenantID: "t1", Model: "llama-3.1", Provider: "groq", Status: "success"}

	m.RecordRequest(ctx, labels)
	m.RecordLatency(ctx, 120.5, labels)
	m.RecordTokens(ctx, 10, 20, labels)
	m.RecordCost(ctx, 0.002, labels)

	var sb strings.Builder
	m.WriteExposition(&sb)
	out := sb.String()

	assert.Contains(t, out, "gateway_requests_total{tenant_id=\"t1\",model=\"llama-3.1\",provider=\"groq\",status=\"success\"} 1")
	assert.Contains(t, out, "gateway_tokens_input_total")
	assert.Contains(t, out, "gateway_cost_total")
}

func TestMetrics_EmptyExpositionIsEmpty(t *testing.T) {
	m := NewMetrics()
	var sb strings.Builder
	m.WriteExposition(&sb)
	assert.Empty(t, sb.String())
}
