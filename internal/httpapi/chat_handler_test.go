package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/breaker"
	"github.com/riftgate/llm-gateway/internal/health"
	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/providers"
	"github.com/riftgate/llm-gateway/internal/reqctx"
	"github.com/riftgate/llm-gateway/internal/router"
	"github.com/riftgate/llm-gateway/internal/tenant"
)

type answeringProvider struct {
	name string
	fail bool
}

func (a *answeringProvider) Name() string { return a.name }
func (a *answeringProvider) MakeRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if a.fail {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "boom", 0, nil)
	}
	return &models.ChatResponse{
		ID:      "chatcmpl-test",
		Model:   req.Model,
		Choices: []models.Choice{{Message: models.Message{Role: models.RoleAssistant, Content: "hello back"}}},
		Usage:   models.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}, nil
}
func (a *answeringProvider) Ping(ctx context.Context) providers.PingResult {
	return providers.PingResult{Status: models.HealthHealthy}
}

func newChatHandlerForTest(t *testing.T, fail bool) (*ChatHandler, *tenant.Registry) {
	registry := providers.NewRegistry()
	registry.Replace(map[string]providers.Provider{"groq": &answeringProvider{name: "groq", fail: fail}})

	r := router.New(registry, breaker.NewSet(breaker.Config{}, zap.NewNop()), health.New(zap.NewNop()), 0, zap.NewNop())
	tenants := tenant.New(zap.NewNop())
	tenants.Replace([]models.Tenant{{TenantID: "acme", APIKeys: []string{"key-1"}, Policy: "balanced", Quotas: models.Quotas{DailyRequests: 1000}}})

	handler := NewChatHandler(r, tenants, observability.NewMetrics(), map[string]float64{"groq": 0.0001}, nil, observability.NewLogger(zap.NewNop()))
	return handler, tenants
}

func withTenantContext(req *http.Request, t models.Tenant) *http.Request {
	ctx := reqctx.WithTenant(req.Context(), t)
	ctx = reqctx.WithTenantID(ctx, t.TenantID)
	ctx = reqctx.WithRequestID(ctx, "req-1")
	return req.WithContext(ctx)
}

func TestChatHandler_Success(t *testing.T) {
	handler, tenants := newChatHandlerForTest(t, false)
	tn, _ := tenants.FindByAPIKey("key-1")

	body, _ := json.Marshal(ChatCompletionRequest{Model: "llama-3.1-8b-instant", Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req = withTenantContext(req, tn)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "groq", resp.RoutingMetadata.PrimaryProvider)
}

func TestChatHandler_InvalidBody(t *testing.T) {
	handler, tenants := newChatHandlerForTest(t, false)
	tn, _ := tenants.FindByAPIKey("key-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader([]byte("not json")))
	req = withTenantContext(req, tn)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_ValidationFailure(t *testing.T) {
	handler, tenants := newChatHandlerForTest(t, false)
	tn, _ := tenants.FindByAPIKey("key-1")

	body, _ := json.Marshal(ChatCompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req = withTenantContext(req, tn)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_QuotaExceeded(t *testing.T) {
	handler, tenants := newChatHandlerForTest(t, false)
	tenants.Replace([]models.Tenant{{TenantID: "acme", APIKeys: []string{"key-1"}, Quotas: models.Quotas{DailyRequests: 1}}})
	tn, _ := tenants.FindByAPIKey("key-1")
	tenants.TrackUsage("acme", tenant.UsageUpdate{TotalTokens: 10, EstimatedCost: 0.01})

	body, _ := json.Marshal(ChatCompletionRequest{Model: "m", Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req = withTenantContext(req, tn)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestChatHandler_AllProvidersFailed(t *testing.T) {
	handler, tenants := newChatHandlerForTest(t, true)
	tn, _ := tenants.FindByAPIKey("key-1")

	body, _ := json.Marshal(ChatCompletionRequest{Model: "m", Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req = withTenantContext(req, tn)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
