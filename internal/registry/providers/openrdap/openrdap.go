// Package openrdap is the secondary structured strategy. It delegates both the
// bootstrap and the query to the openrdap client, so it keeps working when the
// primary resolver's directory cache is in a bad state.
package openrdap

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap"
	"github.com/openrdap/rdap/bootstrap"

	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
	"domainlens/pkg/requestcontext"
)

const ProviderID = "openrdap"

type Provider struct {
	client *rdap.Client
	logger *slog.Logger
}

type Option func(*config)

type config struct {
	httpClient   *http.Client
	directoryURL string
	logger       *slog.Logger
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithDirectoryURL points the bootstrap at a dns.json document. The client
// fetches dns.json relative to the containing directory.
func WithDirectoryURL(directoryURL string) Option {
	return func(c *config) {
		c.directoryURL = directoryURL
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func New(opts ...Option) (*Provider, error) {
	cfg := &config{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	boot := &bootstrap.Client{HTTP: cfg.httpClient}
	if cfg.directoryURL != "" {
		base, err := directoryBase(cfg.directoryURL)
		if err != nil {
			return nil, err
		}
		boot.BaseURL = base
	}

	return &Provider{
		client: &rdap.Client{HTTP: cfg.httpClient, Bootstrap: boot},
		logger: cfg.logger,
	}, nil
}

func directoryBase(directoryURL string) (*url.URL, error) {
	u, err := url.Parse(directoryURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("directory URL must be absolute")
	}
	if idx := strings.LastIndex(u.Path, "/"); idx >= 0 {
		u.Path = u.Path[:idx+1]
	} else {
		u.Path = "/"
	}
	u.RawQuery = ""
	return u, nil
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol: providers.ProtocolRDAP,
		Kind:     providers.RecordStructured,
		Version:  "openrdap",
	}
}

func (p *Provider) Lookup(ctx context.Context, d domain.DomainName) (*providers.RawRecord, error) {
	req := rdap.NewDomainRequest(d.String()).WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}

	body, endpoint := rawBody(resp)
	if len(body) == 0 {
		return nil, providers.NewProviderError(providers.ErrorEmptyRecord, ProviderID, "empty response", nil)
	}

	p.logger.DebugContext(ctx, "openrdap record fetched",
		"request_id", requestcontext.RequestID(ctx),
		"domain", d,
		"endpoint", endpoint,
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

// rawBody prefers the bytes the server actually sent. The decoded object is
// re-encoded only when no successful HTTP exchange was recorded.
func rawBody(resp *rdap.Response) ([]byte, string) {
	for i := len(resp.HTTP) - 1; i >= 0; i-- {
		h := resp.HTTP[i]
		if h == nil || h.Error != nil || len(h.Body) == 0 {
			continue
		}
		if json.Valid(h.Body) {
			return h.Body, h.URL
		}
	}
	if resp.Object == nil {
		return nil, ""
	}
	body, err := json.Marshal(resp.Object)
	if err != nil {
		return nil, ""
	}
	return body, ""
}

func classify(ctx context.Context, err error) error {
	if pe := providers.FromContext(ProviderID, ctx.Err()); pe != nil {
		return pe
	}
	if pe := providers.FromContext(ProviderID, err); pe != nil {
		return pe
	}

	var ce *rdap.ClientError
	if errors.As(err, &ce) {
		switch ce.Type {
		case rdap.ObjectDoesNotExist:
			return providers.NewProviderError(providers.ErrorNotFound, ProviderID, "domain not found", err)
		case rdap.BootstrapNoMatch, rdap.BootstrapNotSupported:
			return providers.NewProviderError(providers.ErrorNoServer, ProviderID, "no server for TLD", err)
		case rdap.WrongResponseType:
			return providers.NewProviderError(providers.ErrorBadData, ProviderID, "unexpected response type", err)
		case rdap.InputError:
			return providers.NewProviderError(providers.ErrorInternal, ProviderID, "rejected query", err)
		}
	}
	return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "query failed", err)
}
