package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/errors"
	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/policy"
	"github.com/riftgate/llm-gateway/internal/reqctx"
	"github.com/riftgate/llm-gateway/internal/respond"
	"github.com/riftgate/llm-gateway/internal/router"
	"github.com/riftgate/llm-gateway/internal/tenant"
)

// ChatHandler serves POST /v1/chat/completions, the gateway's one inference
// endpoint (spec §6). Grounded on the thin-handler shape of the teacher's
// handlers.InferenceHandler.HandleChatCompletion: decode, validate, build a
// service-level request, delegate, translate the result.
type ChatHandler struct {
	router       *router.Router
	tenants      *tenant.Registry
	metrics      observability.Metrics
	costPerToken map[string]float64
	policyParams func(policy.Name) policy.Params
	logger       observability.Logger
}

// NewChatHandler constructs a ChatHandler. costPerToken is the provider ->
// cost-per-token table loaded from the provider descriptors, used by the
// cost-optimized and balanced policies. policyParams resolves the
// operator-configured override parameters for a policy name (policies/
// routing.json, spec §6); pass nil to always use the package defaults.
func NewChatHandler(r *router.Router, tenants *tenant.Registry, metrics observability.Metrics, costPerToken map[string]float64, policyParams func(policy.Name) policy.Params, logger observability.Logger) *ChatHandler {
	return &ChatHandler{router: r, tenants: tenants, metrics: metrics, costPerToken: costPerToken, policyParams: policyParams, logger: logger}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, _ := reqctx.Tenant(ctx)

	var body ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn(ctx, "failed to decode chat completion body", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, string(errors.ErrorTypeValidation), "invalid request body", nil)
		return
	}

	if err := validateStruct(&body); err != nil {
		h.logger.Warn(ctx, "chat completion request failed validation")
		if verr, ok := err.(*validationError); ok {
			respond.Error(w, http.StatusBadRequest, string(errors.ErrorTypeValidation), "validation failed", verr.detailMap())
			return
		}
		respond.Error(w, http.StatusBadRequest, string(errors.ErrorTypeValidation), err.Error(), nil)
		return
	}

	quota := h.tenants.CheckQuota(t.TenantID, models.QuotaDaily)
	if !quota.Allowed {
		h.logger.Warn(ctx, "daily quota exceeded", zap.String("tenant_id", t.TenantID))
		respond.DomainError(w, errors.New(errors.ErrorTypeQuotaExceeded, "daily quota exceeded", nil).WithDetail("used", quota.Used).WithDetail("limit", quota.Limit))
		return
	}

	req := &models.ChatRequest{Model: body.Model, Messages: toModelMessages(body.Messages)}
	if body.Temperature != nil {
		req.Temperature = *body.Temperature
	}
	if body.TopP != nil {
		req.TopP = *body.TopP
	}
	if body.MaxTokens != nil {
		req.MaxTokens = *body.MaxTokens
	}

	policyName := policy.Name(t.Policy)
	if policyName == "" {
		policyName = policy.Balanced
	}

	var params policy.Params
	if h.policyParams != nil {
		params = h.policyParams(policyName)
	}

	rc := router.RouteContext{
		TenantID:         t.TenantID,
		AllowedProviders: t.AllowedProviders,
		PolicyName:       policyName,
		PolicyParams:     params,
		CostPerToken:     h.costPerToken,
	}

	resp, err := h.router.RouteRequest(ctx, req, rc)
	if err != nil {
		h.logger.Error(ctx, "chat completion routing failed", zap.String("tenant_id", t.TenantID), zap.Error(err))
		h.metrics.RecordRequest(ctx, observability.RequestLabels{TenantID: t.TenantID, Model: body.Model, Status: "error"})
		respond.DomainError(w, err)
		return
	}

	totalTokens := int64(resp.Usage.TotalTokens)
	cost := h.costPerToken[resp.RoutingMetadata.PrimaryProvider] * float64(totalTokens)
	h.tenants.TrackUsage(t.TenantID, tenant.UsageUpdate{TotalTokens: totalTokens, EstimatedCost: cost})

	labels := observability.RequestLabels{TenantID: t.TenantID, Model: resp.Model, Provider: resp.RoutingMetadata.PrimaryProvider, Status: "success"}
	h.metrics.RecordRequest(ctx, labels)
	h.metrics.RecordLatency(ctx, float64(resp.RoutingMetadata.APIProcessingTime), labels)
	h.metrics.RecordTokens(ctx, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, labels)
	h.metrics.RecordCost(ctx, cost, labels)

	h.logger.Info(ctx, "chat completion succeeded",
		zap.String("tenant_id", t.TenantID),
		zap.String("provider", resp.RoutingMetadata.PrimaryProvider),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	respond.JSON(w, http.StatusOK, resp)
}

func toModelMessages(in []ChatMessage) []models.Message {
	out := make([]models.Message, len(in))
	for i, m := range in {
		out[i] = models.Message{Role: models.Role(m.Role), Content: m.Content}
	}
	return out
}
