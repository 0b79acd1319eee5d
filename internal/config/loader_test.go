package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftgate/llm-gateway/internal/policy"
)

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadProviders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.json")
	writeFile(t, path, `{
		"groq": {"type": "groq", "endpoint": "https://api.groq.com/openai/v1/chat/completions", "api_key_env": "GROQ_API_KEY", "enabled": true, "cost_per_token": 0.0001},
		"gemini": {"type": "gemini", "api_key_env": "GEMINI_API_KEY", "enabled": false}
	}`)

	descriptors, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	byName := map[string]bool{}
	for _, d := range descriptors {
		byName[d.Name] = d.Enabled
		if d.Name == "groq" {
			assert.Equal(t, "GROQ_API_KEY", d.APIKeyEnv)
			assert.NotZero(t, d.Timeout)
		}
	}
	assert.True(t, byName["groq"])
	assert.False(t, byName["gemini"])
}

func TestLoadProviders_MissingFile(t *testing.T) {
	_, err := LoadProviders(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadTenants(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "acme.json"), `{"tenant_id": "acme", "api_keys": ["key-1"], "policy": "balanced"}`)
	writeFile(t, filepath.Join(dir, "globex.json"), `{"tenant_id": "globex", "api_keys": ["key-2"], "policy": "cost-optimized"}`)

	tenants, err := LoadTenants(dir)
	require.NoError(t, err)
	require.Len(t, tenants, 2)

	ids := []string{tenants[0].TenantID, tenants[1].TenantID}
	assert.ElementsMatch(t, []string{"acme", "globex"}, ids)
}

func TestLoadTenants_EmptyDir(t *testing.T) {
	tenants, err := LoadTenants(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestLoadPolicyParams_MissingFileIsNotAnError(t *testing.T) {
	params, err := LoadPolicyParams(filepath.Join(t.TempDir(), "routing.json"))
	require.NoError(t, err)
	assert.Nil(t, params)
}

func TestLoadPolicyParams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.json")
	writeFile(t, path, `{
		"cost-optimized": {"minuptime": 0.95},
		"balanced": {"weights": {"uptime": 0.5, "latency": 0.3, "cost": 0.2}}
	}`)

	params, err := LoadPolicyParams(path)
	require.NoError(t, err)
	require.Contains(t, params, policy.CostOptimized)
	assert.Equal(t, 0.95, params["cost-optimized"].MinUptime)
}
