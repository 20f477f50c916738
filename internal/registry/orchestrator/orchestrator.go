// Package orchestrator drives one lookup through resolve, fetch and
// normalize, with a retry envelope per strategy and top-down fallback
// across the configured chain.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"domainlens/internal/registry/metrics"
	"domainlens/internal/registry/normalize"
	"domainlens/internal/registry/providers"
	"domainlens/internal/registry/retry"
	"domainlens/pkg/domain"
	dErrors "domainlens/pkg/domain-errors"
	"domainlens/pkg/requestcontext"
)

const tracerName = "domainlens/internal/registry/orchestrator"

// Config wires the orchestrator's collaborators.
type Config struct {
	Registry   *providers.ProviderRegistry
	Normalizer normalize.Normalizer
	Policy     retry.Policy
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Orchestrator is stateless between calls; every Fetch owns its attempt
// counters.
type Orchestrator struct {
	registry   *providers.ProviderRegistry
	normalizer normalize.Normalizer
	policy     retry.Policy
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("orchestrator: provider registry is required")
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = normalize.NewParser()
	}
	if cfg.Policy.Attempts == 0 {
		cfg.Policy = retry.DefaultPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		registry:   cfg.Registry,
		normalizer: cfg.Normalizer,
		policy:     cfg.Policy,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Result is a completed lookup.
type Result struct {
	Raw        *providers.RawRecord
	Normalized *normalize.Normalized
}

// Fetch runs the chain top-down and returns the first non-empty record.
func (o *Orchestrator) Fetch(ctx context.Context, d domain.DomainName, chain []string) (*providers.RawRecord, error) {
	ctx, span := o.tracer.Start(ctx, "registry.Fetch", trace.WithAttributes(
		attribute.String("domain", d.String()),
		attribute.StringSlice("chain", chain),
	))
	defer span.End()

	record, err := o.fetch(ctx, d, chain)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("strategy", record.Source))
	return record, nil
}

// Lookup fetches and then normalizes with the configured strategy.
func (o *Orchestrator) Lookup(ctx context.Context, d domain.DomainName, chain []string) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "registry.Lookup", trace.WithAttributes(
		attribute.String("domain", d.String()),
		attribute.String("normalizer", o.normalizer.Name()),
	))
	defer span.End()

	record, err := o.Fetch(ctx, d, chain)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	normalized, err := o.normalizer.Normalize(ctx, record)
	if err != nil {
		o.metrics.RecordNormalization(o.normalizer.Name(), "failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		o.logger.WarnContext(ctx, "normalization failed",
			"request_id", requestcontext.RequestID(ctx),
			"domain", d,
			"strategy", record.Source,
			"normalizer", o.normalizer.Name(),
			"error", err,
		)
		if !dErrors.HasCode(err, dErrors.CodeNormalizationFailed) {
			err = dErrors.Wrap(err, dErrors.CodeNormalizationFailed, "failed to normalize record")
		}
		return nil, err
	}
	o.metrics.RecordNormalization(o.normalizer.Name(), "success")

	return &Result{Raw: record, Normalized: normalized}, nil
}

func (o *Orchestrator) fetch(ctx context.Context, d domain.DomainName, ids []string) (*providers.RawRecord, error) {
	chain, err := o.registry.Chain(ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid strategy chain")
	}

	var errs []error
	for i, p := range chain {
		record, err := o.tryStrategy(ctx, p, d)
		if err == nil {
			return record, nil
		}
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
		if i < len(chain)-1 {
			o.metrics.RecordFallback(p.ID())
			o.logger.InfoContext(ctx, "strategy failed, falling back",
				"request_id", requestcontext.RequestID(ctx),
				"domain", d,
				"strategy", p.ID(),
				"next", chain[i+1].ID(),
				"error", err,
			)
		}
	}
	return nil, terminalError(ctx, errs)
}

// tryStrategy runs one strategy inside its retry envelope. An empty record
// counts as a failed attempt.
func (o *Orchestrator) tryStrategy(ctx context.Context, p providers.Provider, d domain.DomainName) (*providers.RawRecord, error) {
	ctx, span := o.tracer.Start(ctx, "registry.strategy", trace.WithAttributes(
		attribute.String("strategy", p.ID()),
	))
	defer span.End()

	policy := o.policy
	attempts := 0
	policy.OnAttempt = func(attempt int, err error) {
		attempts = attempt
		result := "success"
		if err != nil {
			result = string(providers.GetCategory(err))
		}
		o.metrics.RecordAttempt(p.ID(), result)
		if err != nil {
			o.logger.DebugContext(ctx, "fetch attempt failed",
				"request_id", requestcontext.RequestID(ctx),
				"domain", d,
				"strategy", p.ID(),
				"attempt", attempt,
				"error", err,
			)
		}
	}

	start := time.Now()
	record, err := retry.Do(ctx, policy, func(actx context.Context) (*providers.RawRecord, error) {
		rec, err := p.Lookup(actx, d)
		if err != nil {
			return nil, err
		}
		if rec.Empty() {
			return nil, providers.NewProviderError(providers.ErrorEmptyRecord, p.ID(), "empty record", nil)
		}
		return rec, nil
	})
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(providers.GetCategory(err)))
		o.logger.WarnContext(ctx, "strategy exhausted",
			"request_id", requestcontext.RequestID(ctx),
			"domain", d,
			"strategy", p.ID(),
			"attempts", attempts,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}
	return record, nil
}

// terminalError surfaces a lone strategy's last error as is and combines
// several into AllStrategiesExhausted.
func terminalError(ctx context.Context, errs []error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && len(errs) == 0 {
		return dErrors.Wrap(ctxErr, dErrors.CodeUpstreamFetchFailed, "lookup canceled")
	}
	if len(errs) == 1 {
		return codedProviderError(errs[0])
	}
	combined := multierr.Combine(errs...)
	return dErrors.Wrap(
		fmt.Errorf("%w: %w", providers.ErrAllProvidersFailed, combined),
		dErrors.CodeAllStrategiesExhausted,
		"all lookup strategies failed",
	)
}

func codedProviderError(err error) error {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return dErrors.Wrap(err, pe.Code(), upstreamMessage(pe.Code()))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUpstreamFetchFailed, "lookup canceled")
	}
	return dErrors.Wrap(err, dErrors.CodeUpstreamFetchFailed, "upstream lookup failed")
}

func upstreamMessage(code dErrors.Code) string {
	switch code {
	case dErrors.CodeDirectoryUnavailable:
		return "registry directory unavailable"
	case dErrors.CodeNoServerForTLD:
		return "no registry server for this TLD"
	default:
		return "upstream lookup failed"
	}
}
