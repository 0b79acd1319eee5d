// Package policy implements the Policy Engine (spec §4.4): a pure
// function of (candidates, health snapshot, policy name, parameters) to an
// ordered provider list. No I/O, no side effects.
//
// Grounded on the selection-strategy methods in the teacher's
// services/routing/service.go (selectLowestCost, selectFastest,
// selectByModel) — same "ascending by one dimension, tie-break on
// another" shape — generalized from picking a single provider to
// producing a full ordered list, and from strategy-per-request to the
// three named built-in policies the spec requires.
package policy

import (
	"sort"

	"github.com/riftgate/llm-gateway/internal/models"
)

// Name identifies a built-in policy.
type Name string

const (
	CostOptimized   Name = "cost-optimized"
	PerformanceFirst Name = "performance-first"
	Balanced        Name = "balanced"
)

// normalize maps the documented underscore synonym onto the canonical
// hyphenated identifier (spec §9 Open Question).
func normalize(name Name) Name {
	if name == "performance_first" {
		return PerformanceFirst
	}
	return name
}

// Params are the tunable parameters of a policy. Zero values fall back to
// the documented defaults.
type Params struct {
	MinUptime float64
	// CostPerToken overrides the per-provider cost table for
	// cost-optimized and balanced scoring; absent providers use the package default.
	CostPerToken map[string]float64
	Weights      Weights
}

// Weights are the balanced-policy scoring weights (spec §4.4).
type Weights struct {
	Uptime  float64
	Latency float64
	Cost    float64
}

// DefaultWeights are the balanced policy's documented defaults.
var DefaultWeights = Weights{Uptime: 0.3, Latency: 0.4, Cost: 0.3}

const (
	// DefaultMinUptime is the uptime floor below which a provider is
	// filtered from consideration, subject to the fail-open rule.
	DefaultMinUptime = 0.90
	// DefaultCostPerToken is used when a provider has no cost configured.
	DefaultCostPerToken = 0.002
	latencyScoreDivisor = 2000.0
	costScoreDivisor    = 0.01
)

// Candidate is one provider available for ordering, with its configured
// cost joined in from the Provider Descriptor.
type Candidate struct {
	Name         string
	CostPerToken float64
}

// Order computes the ordered provider-name list for the given policy,
// candidates, and health snapshot. It is pure: identical inputs produce
// identical outputs (spec P5).
func Order(policyName Name, candidates []Candidate, health map[string]models.HealthSnapshot, params Params) []string {
	name := normalize(policyName)
	minUptime := params.MinUptime
	if minUptime <= 0 {
		minUptime = DefaultMinUptime
	}

	filtered := filterByMinUptime(candidates, health, minUptime)
	if len(filtered) == 0 {
		// Fail-open: never fail-empty when candidates exist (spec §4.4).
		filtered = candidates
	}

	switch name {
	case CostOptimized:
		return orderByCost(filtered, health, params)
	case PerformanceFirst:
		return orderByLatency(filtered, health)
	default:
		return orderByScore(filtered, health, params)
	}
}

func filterByMinUptime(candidates []Candidate, health map[string]models.HealthSnapshot, minUptime float64) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if health[c.Name].Uptime >= minUptime {
			out = append(out, c)
		}
	}
	return out
}

func costFor(c Candidate, params Params) float64 {
	if params.CostPerToken != nil {
		if v, ok := params.CostPerToken[c.Name]; ok {
			return v
		}
	}
	if c.CostPerToken > 0 {
		return c.CostPerToken
	}
	return DefaultCostPerToken
}

// orderByCost sorts ascending by cost_per_token, ties broken by descending
// uptime.
func orderByCost(candidates []Candidate, health map[string]models.HealthSnapshot, params Params) []string {
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := costFor(sorted[i], params), costFor(sorted[j], params)
		if ci != cj {
			return ci < cj
		}
		return health[sorted[i].Name].Uptime > health[sorted[j].Name].Uptime
	})
	return names(sorted)
}

// orderByLatency sorts ascending by avg_latency, ties broken by descending
// uptime.
func orderByLatency(candidates []Candidate, health map[string]models.HealthSnapshot) []string {
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := health[sorted[i].Name].AvgLatencyMs, health[sorted[j].Name].AvgLatencyMs
		if li != lj {
			return li < lj
		}
		return health[sorted[i].Name].Uptime > health[sorted[j].Name].Uptime
	})
	return names(sorted)
}

// orderByScore implements the balanced policy's weighted sum, descending,
// ties broken lexicographically by provider name (spec §4.4).
func orderByScore(candidates []Candidate, health map[string]models.HealthSnapshot, params Params) []string {
	weights := params.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights
	}

	sorted := append([]Candidate(nil), candidates...)
	score := func(c Candidate) float64 {
		h := health[c.Name]
		uptimeScore := clamp(h.Uptime, 0, 1)
		latencyScore := max0(1 - h.AvgLatencyMs/latencyScoreDivisor)
		costScore := max0(1 - costFor(c, params)/costScoreDivisor)
		return weights.Uptime*uptimeScore + weights.Latency*latencyScore + weights.Cost*costScore
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := score(sorted[i]), score(sorted[j])
		if si != sj {
			return si > sj
		}
		return sorted[i].Name < sorted[j].Name
	})
	return names(sorted)
}

func names(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
