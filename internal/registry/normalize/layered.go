package normalize

import (
	"context"
	"log/slog"

	"domainlens/internal/registry/providers"
	"domainlens/pkg/requestcontext"
)

// Layered tries the primary strategy and falls back on any failure,
// including the primary's timeout.
type Layered struct {
	primary  Normalizer
	fallback Normalizer
	logger   *slog.Logger
}

// NewLayered builds the fallback pair. A nil logger uses slog.Default.
func NewLayered(primary, fallback Normalizer, logger *slog.Logger) *Layered {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layered{primary: primary, fallback: fallback, logger: logger}
}

func (l *Layered) Name() string {
	return StrategyLayered
}

func (l *Layered) Normalize(ctx context.Context, raw *providers.RawRecord) (*Normalized, error) {
	n, err := l.primary.Normalize(ctx, raw)
	if err == nil {
		return n, nil
	}
	l.logger.InfoContext(ctx, "falling back to deterministic normalization",
		"request_id", requestcontext.RequestID(ctx),
		"domain", raw.Domain,
		"primary", l.primary.Name(),
		"error", err,
	)
	return l.fallback.Normalize(ctx, raw)
}
