// Package gemini adapts the gateway's normalized chat request to Google's
// Generative Language REST API (generateContent), which uses a distinctly
// different wire shape (contents/parts, candidates, usageMetadata) and
// query-string authentication rather than a bearer header.
//
// Grounded on the teacher's services/providers/openai/adapter.go for
// overall structure (HTTP client, marshal/unmarshal, error classification)
// with the wire types rewritten for Gemini's shape.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/providers"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

func init() {
	providers.RegisterFactory("gemini", New)
}

// Adapter implements providers.Provider for Gemini.
type Adapter struct {
	name       string
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New constructs a Gemini adapter from resolved config.
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

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
}

type wireRequest struct {
	Contents          []wireContent         `json:"contents"`
	SystemInstruction *wireContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *wireGenerationConfig `json:"generationConfig,omitempty"`
}

type wireCandidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason"`
	Index        int         `json:"index"`
}

type wireUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type wireResponse struct {
	Candidates    []wireCandidate   `json:"candidates"`
	UsageMetadata wireUsageMetadata `json:"usageMetadata"`
	ModelVersion  string            `json:"modelVersion"`
}

type wireError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// MakeRequest implements providers.Provider.
func (a *Adapter) MakeRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	wireReq := wireRequest{
		GenerationConfig: &wireGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
			TopP:            req.TopP,
		},
	}
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			wireReq.SystemInstruction = &wireContent{Parts: []wirePart{{Text: m.Content}}}
		case models.RoleAssistant:
			wireReq.Contents = append(wireReq.Contents, wireContent{Role: "model", Parts: []wirePart{{Text: m.Content}}})
		default:
			wireReq.Contents = append(wireReq.Contents, wireContent{Role: "user", Parts: []wirePart{{Text: m.Content}}})
		}
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "failed to marshal request", 0, err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", a.endpoint, url.PathEscape(req.Model), url.QueryEscape(a.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewError(a.name, providers.KindUpstreamOther, "failed to build request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
	if len(wireResp.Candidates) == 0 {
		return nil, providers.NewError(a.name, providers.KindUpstreamMalformed, "response contained no candidates", httpResp.StatusCode, nil)
	}

	return a.toNormalized(req, &wireResp), nil
}

func (a *Adapter) classifyError(status int, body []byte) error {
	var werr wireError
	msg := string(body)
	if err := json.Unmarshal(body, &werr); err == nil && werr.Error.Message != "" {
		msg = werr.Error.Message
	}
	return providers.NewError(a.name, providers.ClassifyHTTPStatus(status), msg, status, nil)
}

func (a *Adapter) toNormalized(req *models.ChatRequest, wireResp *wireResponse) *models.ChatResponse {
	candidate := wireResp.Candidates[0]
	var text string
	for _, p := range candidate.Content.Parts {
		text += p.Text
	}

	choice := models.Choice{
		Index:        candidate.Index,
		Message:      models.Message{Role: models.RoleAssistant, Content: text},
		FinishReason: normalizeFinishReason(candidate.FinishReason),
	}

	usage := models.Usage{
		PromptTokens:     wireResp.UsageMetadata.PromptTokenCount,
		CompletionTokens: wireResp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      wireResp.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens == 0 {
		var promptText string
		for _, m := range req.Messages {
			promptText += m.Content
		}
		prompt := models.EstimateTokens(promptText)
		completion := models.EstimateTokens(text)
		usage = models.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	}

	return &models.ChatResponse{
		ID:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []models.Choice{choice},
		Usage:   usage,
	}
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		return "stop"
	}
}

// Ping performs a minimal synthetic generateContent call for health
// probing.
func (a *Adapter) Ping(ctx context.Context) providers.PingResult {
	ctx, cancel := context.WithTimeout(ctx, providers.DefaultPingTimeout)
	defer cancel()

	start := time.Now()
	_, err := a.MakeRequest(ctx, &models.ChatRequest{
		Model:     "gemini-1.5-flash",
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
