// Package whois is the legacy text strategy over the port 43 protocol.
package whois

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	lwhois "github.com/likexian/whois"

	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
	"domainlens/pkg/requestcontext"
)

const ProviderID = "whois"

// Querier performs one WHOIS exchange. With no servers it follows IANA
// referrals to the authoritative server.
type Querier interface {
	Whois(domain string, servers ...string) (string, error)
}

// notFoundMarkers are answers registries give instead of a record.
var notFoundMarkers = []string{
	"no match for",
	"not found",
	"no entries found",
	"no data found",
	"no object found",
	"object does not exist",
	"the queried object does not exist",
	"no such domain",
	"no matching record",
}

type Provider struct {
	querier Querier
	server  string
	logger  *slog.Logger
}

type Option func(*Provider)

// WithServer pins every query to one WHOIS host instead of following referrals.
func WithServer(server string) Option {
	return func(p *Provider) {
		p.server = server
	}
}

func WithQuerier(q Querier) Option {
	return func(p *Provider) {
		if q != nil {
			p.querier = q
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates the provider. timeout bounds each dial and read on the client.
// The client's query-time footer is disabled so answers hold only what the
// registry sent.
func New(timeout time.Duration, opts ...Option) *Provider {
	client := lwhois.NewClient().SetDisableStats(true)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	p := &Provider{
		querier: client,
		logger:  slog.Default(),
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
		Protocol: providers.ProtocolWhois,
		Kind:     providers.RecordText,
		Version:  "rfc3912",
	}
}

type answer struct {
	text string
	err  error
}

// Lookup runs the query on its own goroutine because the client has no
// context support. On cancellation the goroutine finishes against the
// client's own timeout and its answer is discarded.
func (p *Provider) Lookup(ctx context.Context, d domain.DomainName) (*providers.RawRecord, error) {
	var servers []string
	if p.server != "" {
		servers = []string{p.server}
	}

	done := make(chan answer, 1)
	go func() {
		text, err := p.querier.Whois(d.String(), servers...)
		done <- answer{text: text, err: err}
	}()

	var res answer
	select {
	case <-ctx.Done():
		return nil, providers.FromContext(ProviderID, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return nil, classify(res.err)
	}
	if strings.TrimSpace(res.text) == "" {
		return nil, providers.NewProviderError(providers.ErrorEmptyRecord, ProviderID, "empty response", nil)
	}
	if looksNotFound(res.text) {
		return nil, providers.NewProviderError(providers.ErrorNotFound, ProviderID, "domain not found", nil)
	}

	p.logger.DebugContext(ctx, "whois record fetched",
		"request_id", requestcontext.RequestID(ctx),
		"domain", d,
		"server", p.server,
		"bytes", len(res.text),
	)

	return &providers.RawRecord{
		Domain:    d,
		Source:    ProviderID,
		Protocol:  providers.ProtocolWhois,
		Kind:      providers.RecordText,
		Endpoint:  p.server,
		Text:      res.text,
		CheckedAt: requestcontext.Now(ctx),
	}, nil
}

// looksNotFound only inspects the head of the answer; legal notices further
// down often quote the same phrases.
func looksNotFound(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(head, "domain name:") {
		return false
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return providers.NewProviderError(providers.ErrorTimeout, ProviderID, "query timed out", err)
	}
	if errors.Is(err, lwhois.ErrWhoisServerNotFound) {
		return providers.NewProviderError(providers.ErrorNoServer, ProviderID, "no whois server for tld", err)
	}
	if errors.Is(err, lwhois.ErrDomainEmpty) {
		return providers.NewProviderError(providers.ErrorInternal, ProviderID, "rejected query", err)
	}
	return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "query failed", err)
}
