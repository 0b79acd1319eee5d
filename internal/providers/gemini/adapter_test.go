package gemini

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
	adapter := New(providers.Config{Name: "gemini-test", Endpoint: server.URL, APIKey: "sk-test"}).(*Adapter)
	return adapter, server
}

func TestMakeRequest_Success(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.URL.Query().Get("key"))

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)

		resp := wireResponse{
			Candidates: []wireCandidate{{
				Content:      wireContent{Parts: []wirePart{{Text: "hi there"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: wireUsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 2, TotalTokenCount: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{
		Model:    "gemini-1.5-flash",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
	assert.Equal(t, "hi there", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
}

func TestMakeRequest_UsesSystemInstruction(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be terse", req.SystemInstruction.Parts[0].Text)

		resp := wireResponse{Candidates: []wireCandidate{{Content: wireContent{Parts: []wirePart{{Text: "ok"}}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{
		Model: "gemini-1.5-flash",
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "be terse"},
			{Role: models.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
}

func TestMakeRequest_EstimatesUsageWhenUpstreamOmitsIt(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		resp := wireResponse{Candidates: []wireCandidate{{Content: wireContent{Parts: []wirePart{{Text: "pong"}}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{
		Model:    "gemini-1.5-flash",
		Messages: []models.Message{{Role: models.RoleUser, Content: "ping"}},
	})
	require.NoError(t, err)
	assert.Greater(t, resp.Usage.TotalTokens, 0)
}

func TestMakeRequest_NoCandidatesIsMalformed(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{})
	})

	_, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{Model: "m", Messages: []models.Message{{Role: models.RoleUser, Content: "x"}}})
	require.Error(t, err)
	perr, ok := err.(*providers.Error)
	require.True(t, ok)
	assert.Equal(t, providers.KindUpstreamMalformed, perr.Kind)
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

func TestMakeRequest_ClassifyErrorUsesUpstreamMessage(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		werr := wireError{}
		werr.Error.Message = "model not found"
		werr.Error.Status = "NOT_FOUND"
		_ = json.NewEncoder(w).Encode(werr)
	})

	_, err := adapter.MakeRequest(context.Background(), &models.ChatRequest{Model: "m", Messages: []models.Message{{Role: models.RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestPing_Healthy(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{Candidates: []wireCandidate{{Content: wireContent{Parts: []wirePart{{Text: "pong"}}}}}})
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
	adapter := New(providers.Config{Name: "gemini-primary"}).(*Adapter)
	assert.Equal(t, "gemini-primary", adapter.Name())
}
