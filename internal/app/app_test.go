package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/policy"
	"github.com/riftgate/llm-gateway/internal/providers"
)

func init() {
	providers.RegisterFactory("app-test-stub", func(cfg providers.Config) providers.Provider {
		return &stubProvider{name: cfg.Name}
	})
}

type stubProvider struct{ name string }

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) MakeRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	return nil, nil
}
func (s *stubProvider) Ping(ctx context.Context) providers.PingResult {
	return providers.PingResult{Status: models.HealthHealthy}
}

func TestBuildProviders_SkipsDisabled(t *testing.T) {
	descriptors := []models.ProviderDescriptor{
		{Name: "groq", Type: "app-test-stub", APIKeyEnv: "APP_TEST_GROQ_KEY", Enabled: false},
	}
	instances, costPerToken, err := buildProviders(descriptors, observability.NewLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Empty(t, instances)
	assert.Empty(t, costPerToken)
}

func TestBuildProviders_SkipsMissingAPIKeyEnv(t *testing.T) {
	t.Setenv("APP_TEST_MISSING_KEY", "")
	descriptors := []models.ProviderDescriptor{
		{Name: "groq", Type: "app-test-stub", APIKeyEnv: "APP_TEST_MISSING_KEY", Enabled: true},
	}
	instances, _, err := buildProviders(descriptors, observability.NewLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestBuildProviders_BuildsEnabledWithResolvedKey(t *testing.T) {
	t.Setenv("APP_TEST_GROQ_KEY", "sk-test-123")
	descriptors := []models.ProviderDescriptor{
		{Name: "groq", Type: "app-test-stub", APIKeyEnv: "APP_TEST_GROQ_KEY", Enabled: true, CostPerTok: 0.0002},
	}
	instances, costPerToken, err := buildProviders(descriptors, observability.NewLogger(zap.NewNop()))
	require.NoError(t, err)
	require.Contains(t, instances, "groq")
	assert.Equal(t, "groq", instances["groq"].Name())
	assert.Equal(t, 0.0002, costPerToken["groq"])
}

func TestBuildProviders_UnknownTypeTagErrors(t *testing.T) {
	t.Setenv("APP_TEST_UNKNOWN_KEY", "sk-test-123")
	descriptors := []models.ProviderDescriptor{
		{Name: "mystery", Type: "does-not-exist", APIKeyEnv: "APP_TEST_UNKNOWN_KEY", Enabled: true},
	}
	_, _, err := buildProviders(descriptors, observability.NewLogger(zap.NewNop()))
	assert.Error(t, err)
}

func TestDependencies_PolicyParams_DefaultsToZeroValue(t *testing.T) {
	d := &Dependencies{}
	assert.Equal(t, policy.Params{}, d.PolicyParams(policy.Balanced))
}

func TestDependencies_PolicyParams_ReturnsConfigured(t *testing.T) {
	d := &Dependencies{policyParams: map[policy.Name]policy.Params{
		policy.CostOptimized: {MinUptime: 0.9},
	}}
	assert.Equal(t, 0.9, d.PolicyParams(policy.CostOptimized).MinUptime)
}

func TestDependencies_CostPerToken(t *testing.T) {
	d := &Dependencies{costPerToken: map[string]float64{"groq": 0.0001}}
	assert.Equal(t, 0.0001, d.CostPerToken()["groq"])
}
