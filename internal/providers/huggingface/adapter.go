// Package huggingface adapts the gateway's normalized chat request to
// HuggingFace's OpenAI-compatible router API
// (https://router.huggingface.co/v1/chat/completions).
//
// Grounded on the same teacher pattern as the groq adapter
// (services/providers/openai/adapter.go), since both vendors expose an
// OpenAI-shaped chat/completions endpoint; HuggingFace additionally wraps
// model-loading delays in a 503, which classifies as UPSTREAM_UNAVAILABLE.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/providers"
)

const defaultEndpoint = "https://router.huggingface.co/v1/chat/completions"

func init() {
	providers.RegisterFactory("huggingface", New)
}

// Adapter implements providers.Provider for HuggingFace.
type Adapter struct {
	name       string
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New constructs a HuggingFace adapter from resolved config.
func New(cfg providers.Config) providers.Provider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = providers.DefaultTimeout
	}
	return &Adapter{
		name:       cfg.Name,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *Adapter) Name() string { return a.name }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
}

type wireError struct {
	Error string `json:"error"`
}

// MakeRequest implements providers.Provider.
func (a *Adapter) MakeRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	wireReq := wireRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	for _, m := range req.Messages {
		wireReq.Messages = append(wireReq.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "failed to build request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		kind := providers.KindUpstreamOther
		if ctx.Err() != nil {
			kind = providers.KindUpstreamTimeout
		}
		return nil, providers.NewError(a.name, kind, "request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.classifyError(httpResp.StatusCode, respBody)
	}

	var wireResp wireResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamMalformed, "failed to decode response", httpResp.StatusCode, err)
	}

	return a.toNormalized(req, &wireResp), nil
}

func (a *Adapter) classifyError(status int, body []byte) error {
	var werr wireError
	msg := string(body)
	if err := json.Unmarshal(body, &werr); err == nil && werr.Error != "" {
		msg = werr.Error
	}
	// HuggingFace reports a model still loading as a 503, which
	// ClassifyHTTPStatus already maps to UPSTREAM_UNAVAILABLE.
	return providers.NewError(a.name, providers.ClassifyHTTPStatus(status), msg, status, nil)
}

func (a *Adapter) toNormalized(req *models.ChatRequest, wireResp *wireResponse) *models.ChatResponse {
	choices := make([]models.Choice, len(wireResp.Choices))
	for i, c := range wireResp.Choices {
		choices[i] = models.Choice{
			Index:        c.Index,
			Message:      models.Message{Role: models.Role(c.Message.Role), Content: c.Message.Content},
			FinishReason: c.FinishReason,
		}
	}

	usage := models.Usage{
		PromptTokens:     wireResp.Usage.PromptTokens,
		CompletionTokens: wireResp.Usage.CompletionTokens,
		TotalTokens:      wireResp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		var promptText string
		for _, m := range req.Messages {
			promptText += m.Content
		}
		var completionText string
		for _, c := range choices {
			completionText += c.Message.Content
		}
		prompt := models.EstimateTokens(promptText)
		completion := models.EstimateTokens(completionText)
		usage = models.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	}

	return &models.ChatResponse{
		ID:      wireResp.ID,
		Object:  "chat.completion",
		Created: wireResp.Created,
		Model:   wireResp.Model,
		Choices: choices,
		Usage:   usage,
	}
}

// Ping performs a minimal synthetic chat completion for health probing.
func (a *Adapter) Ping(ctx context.Context) providers.PingResult {
	ctx, cancel := context.WithTimeout(ctx, providers.DefaultPingTimeout)
	defer cancel()

	start := time.Now()
	_, err := a.MakeRequest(ctx, &models.ChatRequest{
		Model:     "meta-llama/Llama-3.1-8B-Instruct",
		Messages:  []models.Message{{Role: models.RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		kind := providers.KindUpstreamOther
		if perr, ok := err.(*providers.Error); ok {
			kind = perr.Kind
		}
		return providers.PingResult{Status: models.HealthUnhealthy, LatencyMs: models.UnhealthyLatencyMs, ErrorKind: kind}
	}
	return providers.PingResult{Status: models.HealthHealthy, LatencyMs: latency}
}
