package models

import "time"

// ProviderDescriptor is the config-loaded, static definition of an upstream
// LLM provider. Name is the primary key, taken from the descriptor's key in
// providers.json; LoadProviders does not report a repeated key, and the
// decoded map keeps a single descriptor per name.
type ProviderDescriptor struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"` // factory key: "groq", "gemini", "huggingface"
	Endpoint   string        `json:"endpoint"`
	APIKeyEnv  string        `json:"api_key_env" mapstructure:"api_key_env"`
	Enabled    bool          `json:"enabled"`
	Timeout    time.Duration `json:"timeout"`
	CostPerTok float64       `json:"cost_per_token,omitempty" mapstructure:"cost_per_token"`
}

// HealthStatus is the outcome of a single attempt, probe, or explicit record.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// UnhealthyLatencyMs is the sentinel latency recorded for an unhealthy sample.
const UnhealthyLatencyMs = 999999

// HealthSample is one entry in a provider's rolling health history.
type HealthSample struct {
	Timestamp time.Time
	Status    HealthStatus
	LatencyMs int64
	ErrorKind string
}

// HealthSnapshot is the per-provider aggregate the Policy Engine scores on.
// It is a value copy — the router never holds a tracker lock across a
// provider call.
type HealthSnapshot struct {
	Provider            string
	Uptime              float64
	AvgLatencyMs        float64
	ConsecutiveFailures int
}
