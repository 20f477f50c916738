package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"domainlens/internal/registry/metrics"
	"domainlens/internal/registry/models"
	"domainlens/internal/registry/orchestrator"
	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
	dErrors "domainlens/pkg/domain-errors"
	"domainlens/pkg/requestcontext"
)

// Default strategy chains.
var (
	DefaultRDAPChain  = []string{"rdap", "openrdap"}
	DefaultWhoisChain = []string{"rdap", "openrdap", "whois"}
)

const (
	operationRDAP  = "rdap"
	operationWhois = "whois"
)

// Orchestrator runs the fetch and normalize pipeline.
type Orchestrator interface {
	Fetch(ctx context.Context, d domain.DomainName, chain []string) (*providers.RawRecord, error)
	Lookup(ctx context.Context, d domain.DomainName, chain []string) (*orchestrator.Result, error)
}

// Service validates requests and shapes pipeline output for both endpoints.
type Service struct {
	orchestrator Orchestrator
	rdapChain    []string
	whoisChain   []string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithRDAPChain(chain []string) Option {
	return func(s *Service) {
		if len(chain) > 0 {
			s.rdapChain = chain
		}
	}
}

func WithWhoisChain(chain []string) Option {
	return func(s *Service) {
		if len(chain) > 0 {
			s.whoisChain = chain
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(orch Orchestrator, opts ...Option) (*Service, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	s := &Service{
		orchestrator: orch,
		rdapChain:    DefaultRDAPChain,
		whoisChain:   DefaultWhoisChain,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RDAP returns the registry's RDAP document, or its canonical projection
// when normalized is set.
func (s *Service) RDAP(ctx context.Context, rawDomain string, normalized bool) (result *models.LookupResult, err error) {
	d, err := parseDomain(rawDomain)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, operationRDAP, d, time.Now(), &err)

	if normalized {
		res, err := s.orchestrator.Lookup(ctx, d, s.rdapChain)
		if err != nil {
			return nil, err
		}
		return &models.LookupResult{Domain: d.String(), Strategy: res.Raw.Source, Payload: res.Normalized.Record}, nil
	}

	record, err := s.orchestrator.Fetch(ctx, d, s.rdapChain)
	if err != nil {
		return nil, err
	}
	return &models.LookupResult{Domain: d.String(), Strategy: record.Source, Payload: rawPayload(record)}, nil
}

// Whois returns the canonical record, or with raw the full parsed field
// mapping including non-canonical keys.
func (s *Service) Whois(ctx context.Context, rawDomain string, raw bool) (result *models.LookupResult, err error) {
	d, err := parseDomain(rawDomain)
	if err != nil {
		return nil, err
	}
	defer s.observe(ctx, operationWhois, d, time.Now(), &err)

	res, err := s.orchestrator.Lookup(ctx, d, s.whoisChain)
	if err != nil {
		return nil, err
	}
	var payload any = res.Normalized.Record
	if raw {
		payload = res.Normalized.Fields
	}
	return &models.LookupResult{Domain: d.String(), Strategy: res.Raw.Source, Payload: payload}, nil
}

func parseDomain(raw string) (domain.DomainName, error) {
	if strings.TrimSpace(raw) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "Domain parameter is required")
	}
	return domain.ParseDomainName(raw)
}

func rawPayload(record *providers.RawRecord) any {
	if record.Kind == providers.RecordStructured {
		return json.RawMessage(record.Body)
	}
	return record.Text
}

func (s *Service) observe(ctx context.Context, operation string, d domain.DomainName, start time.Time, errp *error) {
	elapsed := time.Since(start)
	outcome := "success"
	if *errp != nil {
		outcome = string(dErrors.CodeOf(*errp))
	}
	s.metrics.RecordLookup(operation, outcome, elapsed.Seconds())

	if *errp != nil {
		s.logger.ErrorContext(ctx, "lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", operation,
			"domain", d,
			"code", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"error", *errp,
		)
		return
	}
	s.logger.InfoContext(ctx, "lookup completed",
		"request_id", requestcontext.RequestID(ctx),
		"operation", operation,
		"domain", d,
		"duration_ms", elapsed.Milliseconds(),
	)
}
