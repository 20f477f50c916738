package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"domainlens/pkg/domain"
)

// Protocol identifies the wire protocol family a provider speaks.
type Protocol string

const (
	ProtocolRDAP  Protocol = "rdap"
	ProtocolWhois Protocol = "whois"
)

// RecordKind tells the normalizer how to read a RawRecord payload.
type RecordKind string

const (
	RecordStructured RecordKind = "structured"
	RecordText       RecordKind = "text"
)

// Capabilities describes what a provider supports
type Capabilities struct {
	Protocol Protocol
	Kind     RecordKind
	Version  string
}

// RawRecord is the unprocessed upstream answer for one domain. Structured
// records carry a JSON document in Body; text records carry Text.
type RawRecord struct {
	Domain    domain.DomainName
	Source    string // provider ID that produced this record
	Protocol  Protocol
	Kind      RecordKind
	Endpoint  string
	Body      []byte
	Text      string
	CheckedAt time.Time
}

// Empty reports whether the record carries no usable payload.
func (r *RawRecord) Empty() bool {
	if r == nil {
		return true
	}
	return len(strings.TrimSpace(string(r.Body))) == 0 && strings.TrimSpace(r.Text) == ""
}

// Payload returns the record content as text regardless of kind.
func (r *RawRecord) Payload() string {
	if r.Kind == RecordStructured {
		return string(r.Body)
	}
	return r.Text
}

// Provider is the interface every fetch strategy implements.
type Provider interface {
	// ID returns a unique identifier for this provider instance
	ID() string

	// Capabilities returns what this provider supports
	Capabilities() Capabilities

	// Lookup performs one resolve+fetch for the domain. Implementations must
	// honor ctx cancellation and return *ProviderError on failure.
	Lookup(ctx context.Context, d domain.DomainName) (*RawRecord, error)
}

// ProviderRegistry maintains all registered providers
type ProviderRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry creates a new empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *ProviderRegistry) Register(p Provider) error {
	id := p.ID()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Get retrieves a provider by ID
func (r *ProviderRegistry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Chain resolves provider IDs into an ordered fallback chain. Order is kept
// exactly as given.
func (r *ProviderRegistry) Chain(ids []string) ([]Provider, error) {
	if len(ids) == 0 {
		return nil, ErrNoProvidersAvailable
	}
	chain := make([]Provider, 0, len(ids))
	for _, id := range ids {
		p, ok := r.providers[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		chain = append(chain, p)
	}
	return chain, nil
}
