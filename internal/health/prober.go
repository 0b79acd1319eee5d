package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/providers"
)

func toSample(r providers.PingResult) models.HealthSample {
	return models.HealthSample{
		Timestamp: time.Now(),
		Status:    r.Status,
		LatencyMs: r.LatencyMs,
		ErrorKind: string(r.ErrorKind),
	}
}

// DefaultInterval is the prober's default cadence (HEALTH_CHECK_INTERVAL,
// spec §6).
const DefaultInterval = 300 * time.Second

// DefaultProbeConcurrency bounds how many providers are probed
// simultaneously per tick.
const DefaultProbeConcurrency = 4

// Prober periodically calls Ping on every enabled provider and feeds the
// result into a Tracker. It must never share mutable buffers with in-flight
// requests beyond the Tracker itself (spec §4.3).
type Prober struct {
	tracker     *Tracker
	registry    *providers.Registry
	interval    time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewProber constructs a Prober. interval <= 0 falls back to
// DefaultInterval.
func NewProber(tracker *Tracker, registry *providers.Registry, interval time.Duration, logger *zap.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Prober{
		tracker:     tracker,
		registry:    registry,
		interval:    interval,
		concurrency: DefaultProbeConcurrency,
		logger:      logger,
	}
}

// Run blocks, ticking at p.interval until ctx is cancelled. Intended to be
// started in its own goroutine from the app's startup sequence and stopped
// first in the shutdown sequence (spec §5).
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log().Info("prober stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Prober) tick(ctx context.Context) {
	instances := p.registry.All()
	if len(instances) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for name, provider := range instances {
		name, provider := name, provider
		g.Go(func() error {
			p.probeOne(gctx, name, provider)
			return nil
		})
	}
	// Errors are never returned by probeOne; Wait only blocks for
	// completion of the bounded fan-out.
	_ = g.Wait()
}

func (p *Prober) probeOne(ctx context.Context, name string, provider providers.Provider) {
	result := provider.Ping(ctx)
	if result.Status == "" {
		return
	}
	p.tracker.UpdateHealth(name, toSample(result))
	if result.ErrorKind != "" {
		p.log().Debug("probe failed", zap.String("provider", name), zap.String("error_kind", string(result.ErrorKind)))
	}
}

func (p *Prober) log() *zap.Logger {
	if p.logger == nil {
		return zap.NewNop()
	}
	return p.logger
}
