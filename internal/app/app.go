// Package app wires the gateway's components into a single Dependencies
// struct, grounded on the teacher's app/dependencies.go Dependencies/
// NewDependencies pattern ("central wiring point for dependency
// injection"), retargeted from the teacher's Postgres-repository/Cognito
// stack to this gateway's provider registry, breaker set, health tracker,
// router, tenant registry, and rate limiter.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/breaker"
	"github.com/riftgate/llm-gateway/internal/config"
	"github.com/riftgate/llm-gateway/internal/health"
	"github.com/riftgate/llm-gateway/internal/middleware"
	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/policy"
	"github.com/riftgate/llm-gateway/internal/providers"
	"github.com/riftgate/llm-gateway/internal/ratelimit"
	"github.com/riftgate/llm-gateway/internal/router"
	"github.com/riftgate/llm-gateway/internal/tenant"

	// Adapter packages self-register via init(); importing for side effect
	// only is required so providers.Build resolves their type tags.
	_ "github.com/riftgate/llm-gateway/internal/providers/gemini"
	_ "github.com/riftgate/llm-gateway/internal/providers/groq"
	_ "github.com/riftgate/llm-gateway/internal/providers/huggingface"
)

// Dependencies is the central wiring point for the gateway's components,
// constructed once at startup.
type Dependencies struct {
	Config *config.Config
	Logger observability.Logger

	Providers *providers.Registry
	Breakers  *breaker.Set
	Health    *health.Tracker
	Prober    *health.Prober
	Router    *router.Router

	Tenants   *tenant.Registry
	RateLimit *ratelimit.Limiter
	Metrics   observability.Metrics

	Auth        *middleware.Auth
	RateLimitMW *middleware.RateLimit

	configWatcher *config.Watcher
	watchDone     chan struct{}
	proberCancel  context.CancelFunc

	// costPerToken is the provider -> cost-per-token table read from the
	// loaded provider descriptors, handed to the chat handler for the
	// cost-optimized and balanced policies.
	costPerToken map[string]float64
	policyParams map[policy.Name]policy.Params
}

// New constructs and wires every dependency, loading the providers,
// tenants, and optional policy-override config files named in cfg, then
// starting the background health prober and rate-limiter sweeper. Hot
// reload of providers.json and the tenants directory starts after the
// initial load succeeds; the policy overrides are read only here.
func New(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*Dependencies, error) {
	logger := observability.NewLogger(zapLogger)
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Providers: providers.NewRegistry(),
		Breakers:  breaker.NewSet(breaker.Config{}, zapLogger),
		Health:    health.New(zapLogger),
		Tenants:   tenant.New(zapLogger),
		RateLimit: ratelimit.New(cfg.RateLimit.WindowDuration(), zapLogger),
		Metrics:   observability.NewMetrics(),
		watchDone: make(chan struct{}),
	}

	if err := d.loadProviders(); err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	if err := d.loadTenants(); err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}
	if err := d.loadPolicies(); err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	d.Router = router.New(d.Providers, d.Breakers, d.Health, 0, zapLogger)
	d.Prober = health.NewProber(d.Health, d.Providers, cfg.HealthCheckInterval, zapLogger)
	d.Auth = middleware.NewAuth(d.Tenants, logger)
	d.RateLimitMW = middleware.NewRateLimit(d.RateLimit, d.Tenants, logger)

	d.configWatcher = config.NewWatcher(cfg, zapLogger)
	go d.configWatcher.WatchProviders(d.watchDone, d.onProvidersChanged)
	go d.configWatcher.WatchTenants(d.watchDone, d.Tenants.Replace)
	go d.RateLimit.RunSweeper(d.watchDone, 0)

	proberCtx, cancel := context.WithCancel(context.Background())
	d.proberCancel = cancel
	go d.Prober.Run(proberCtx)

	logger.Info(ctx, "dependencies initialized",
		zap.Int("provider_count", len(d.Providers.Names())),
		zap.Strings("providers", d.Providers.Names()))
	return d, nil
}

// PolicyParams returns the override parameters for name, or the zero value
// (package defaults apply) if none were configured.
func (d *Dependencies) PolicyParams(name policy.Name) policy.Params {
	return d.policyParams[name]
}

// CostPerToken returns the provider -> cost-per-token table loaded from
// the provider descriptors.
func (d *Dependencies) CostPerToken() map[string]float64 {
	return d.costPerToken
}

func (d *Dependencies) loadProviders() error {
	descriptors, err := config.LoadProviders(d.Config.ProvidersPath)
	if err != nil {
		return err
	}
	instances, costPerToken, err := buildProviders(descriptors, d.Logger)
	if err != nil {
		return err
	}
	d.Providers.Replace(instances)
	d.costPerToken = costPerToken
	return nil
}

func (d *Dependencies) onProvidersChanged(descriptors []models.ProviderDescriptor) {
	instances, costPerToken, err := buildProviders(descriptors, d.Logger)
	if err != nil {
		d.Logger.Error(context.Background(), "provider config reload rejected", zap.Error(err))
		return
	}
	d.Providers.Replace(instances)
	d.costPerToken = costPerToken
}

// buildProviders resolves each enabled descriptor's API key from its
// api_key_env environment variable (spec §6) and constructs a live
// instance via the registered factory for its type tag.
func buildProviders(descriptors []models.ProviderDescriptor, logger observability.Logger) (map[string]providers.Provider, map[string]float64, error) {
	instances := make(map[string]providers.Provider, len(descriptors))
	costPerToken := make(map[string]float64, len(descriptors))

	for _, desc := range descriptors {
		if !desc.Enabled {
			continue
		}
		apiKey := os.Getenv(desc.APIKeyEnv)
		if apiKey == "" {
			logger.Warn(context.Background(), "provider skipped: api key env var not set", zap.String("provider", desc.Name), zap.String("env_var", desc.APIKeyEnv))
			continue
		}

		instance, err := providers.Build(desc.Type, providers.Config{
			Name:     desc.Name,
			Endpoint: desc.Endpoint,
			APIKey:   apiKey,
			Timeout:  desc.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("provider %q: %w", desc.Name, err)
		}
		instances[desc.Name] = instance
		costPerToken[desc.Name] = desc.CostPerTok
	}
	return instances, costPerToken, nil
}

func (d *Dependencies) loadTenants() error {
	tenants, err := config.LoadTenants(d.Config.TenantsDir)
	if err != nil {
		return err
	}
	d.Tenants.Replace(tenants)
	return nil
}

func (d *Dependencies) loadPolicies() error {
	params, err := config.LoadPolicyParams(d.Config.PoliciesPath)
	if err != nil {
		return err
	}
	d.policyParams = params
	return nil
}

// Close stops the prober, config watchers, and rate-limiter sweeper. It
// does not itself impose the 30s request-drain grace period: that belongs
// to the HTTP server's own Shutdown call in cmd/gateway, which runs after
// Close so the prober is stopped before in-flight requests are drained.
func (d *Dependencies) Close() {
	d.proberCancel()
	close(d.watchDone)
	d.Logger.Info(context.Background(), "dependencies shut down")
}
