// Package rdap implements the primary structured fetch strategy: resolve the
// authoritative RDAP base URL from the bootstrap directory, then query
// <base>/domain/<name>.
package rdap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"domainlens/internal/registry/bootstrap"
	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
	"domainlens/pkg/requestcontext"
)

// ProviderID identifies this strategy in chains, logs and metrics.
const ProviderID = "rdap"

const maxBodySize = 2 << 20

// EndpointResolver resolves the RDAP base URL for a domain.
type EndpointResolver interface {
	Resolve(ctx context.Context, d domain.DomainName) (string, error)
}

// Provider queries the registry's own RDAP service.
type Provider struct {
	resolver EndpointResolver
	client   *http.Client
	logger   *slog.Logger
}

type Option func(*Provider)

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates the provider. Per-attempt deadlines come from the caller's
// context; the client timeout is only a backstop.
func New(resolver EndpointResolver, opts ...Option) *Provider {
	p := &Provider{
		resolver: resolver,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol: providers.ProtocolRDAP,
		Kind:     providers.RecordStructured,
		Version:  "rfc9083",
	}
}

// Lookup resolves the endpoint and fetches the domain object. Resolution is
// part of every call so a retry also retries a failed directory fetch.
func (p *Provider) Lookup(ctx context.Context, d domain.DomainName) (*providers.RawRecord, error) {
	endpoint, err := p.resolver.Resolve(ctx, d)
	if err != nil {
		return nil, classifyResolveError(err)
	}

	target := strings.TrimRight(endpoint, "/") + "/domain/" + url.PathEscape(d.String())
	body, err := p.get(ctx, target)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "rdap record fetched",
		"request_id", requestcontext.RequestID(ctx),
		"domain", d,
		"endpoint", endpoint,
		"bytes", len(body),
	)

	return &providers.RawRecord{
		Domain:    d,
		Source:    ProviderID,
		Protocol:  providers.ProtocolRDAP,
		Kind:      providers.RecordStructured,
		Endpoint:  endpoint,
		Body:      body,
		CheckedAt: requestcontext.Now(ctx),
	}, nil
}

func (p *Provider) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if pe := providers.FromContext(ProviderID, err); pe != nil {
			return nil, pe
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if pe := providers.FromContext(ProviderID, err); pe != nil {
			return nil, pe
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "read body", err)
	}
	if !json.Valid(body) {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "response is not valid JSON", nil)
	}
	return body, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusNotFound:
		return providers.NewProviderError(providers.ErrorNotFound, ProviderID, "domain not found", nil)
	case code == http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ErrorRateLimited, ProviderID, "rate limited by registry", nil)
	default:
		return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID,
			fmt.Sprintf("unexpected status %d", code), nil)
	}
}

func classifyResolveError(err error) error {
	switch {
	case errors.Is(err, bootstrap.ErrNoServerForTLD):
		return providers.NewProviderError(providers.ErrorNoServer, ProviderID, "no server for TLD", err)
	case errors.Is(err, bootstrap.ErrDirectoryUnavailable):
		return providers.NewProviderError(providers.ErrorDirectoryUnavailable, ProviderID, "bootstrap directory unavailable", err)
	}
	if pe := providers.FromContext(ProviderID, err); pe != nil {
		return pe
	}
	return providers.NewProviderError(providers.ErrorInternal, ProviderID, "resolve endpoint", err)
}
