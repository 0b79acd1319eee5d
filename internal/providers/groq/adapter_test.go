package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/providers"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*Adapter, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter := New(providers.Config{Name: "groq-test", Endpoint: server.URL, APIKey: "sk-test"}).(*Adapter)
	return adapter, server
}

func TestMakeRequest_Success(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)

		resp := wireResponse{
			ID:      "chatcmpl-1",
			Model:   req.Model,
			Choices: []wireChoice{{Index: 0, Message: wireMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"}},
			Usage:   wireUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
	assert.Equal(t, "hi", resp.Choices[0].Message.Content)
}

func TestMakeRequest_EstimatesUsageWhenUpstreamOmitsIt(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		resp := wireResponse{
			ID:      "chatcmpl-2",
			Choices: []wireChoice{{Message: wireMessage{Role: "assistant", Content: "pong"}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []models.Message{{Role: models.RoleUser, Content: "ping"}},
	})
	require.NoError(t, err)
	assert.Greater(t, resp.Usage.TotalTokens, 0)
}

func TestMakeRequest_ClassifiesRateLimit(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(wireError{})
	})

	_, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{Model: "m", Messages: []models.Message{{Role: models.RoleUser, Content: "x"}}})
	require.Error(t, err)
	perr, ok := err.(*providers.Error)
	require.True(t, ok)
	assert.Equal(t, providers.KindUpstreamRateLimited, perr.Kind)
}

func TestMakeRequest_ClassifiesInvalidCredential(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{Model: "m", Messages: []models.Message{{Role: models.RoleUser, Content: "x"}}})
	require.Error(t, err)
	perr, ok := err.(*providers.Error)
	require.True(t, ok)
	assert.Equal(t, providers.KindInvalidCredential, perr.Kind)
}

func TestPing_Healthy(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{ID: "chatcmpl-ping", Choices: []wireChoice{{Message: wireMessage{Role: "assistant", Content: "pong"}}}})
	})

	result := adapter.Ping(context.Background())
	assert.Equal(t, models.HealthHealthy, result.Status)
}

func TestPing_UnhealthyOnUpstreamError(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result := adapter.Ping(context.Background())
	assert.Equal(t, models.HealthUnhealthy, result.Status)
	assert.Equal(t, providers.KindUpstreamUnavailable, result.ErrorKind)
}

func TestName(t *testing.T) {
	adapter := New(providers.Config{Name: "groq-primary"}).(*Adapter)
	assert.Equal(t, "groq-primary", adapter.Name())
}
