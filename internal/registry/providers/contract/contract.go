// Package contract holds reusable checks every fetch strategy must pass.
package contract

import (
	"context"
	"testing"

	"domainlens/internal/registry/providers"
	"domainlens/pkg/domain"
)

// ContractTest defines a test case for provider contract validation
type ContractTest struct {
	Name         string
	Provider     providers.Provider
	Domain       domain.DomainName
	ValidateFunc func(record *providers.RawRecord) error
}

// ContractSuite is a collection of contract tests for a provider
type ContractSuite struct {
	ProviderID string
	Tests      []ContractTest
}

// Run executes all contract tests in the suite
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			record, err := test.Provider.Lookup(context.Background(), test.Domain)
			if err != nil {
				t.Fatalf("provider lookup failed: %v", err)
			}

			if record.Source != s.ProviderID {
				t.Errorf("expected source %s, got %s", s.ProviderID, record.Source)
			}

			caps := test.Provider.Capabilities()
			if record.Kind != caps.Kind {
				t.Errorf("record kind %s does not match declared kind %s", record.Kind, caps.Kind)
			}
			if record.Protocol != caps.Protocol {
				t.Errorf("record protocol %s does not match declared protocol %s", record.Protocol, caps.Protocol)
			}

			if record.Domain != test.Domain {
				t.Errorf("expected domain %s, got %s", test.Domain, record.Domain)
			}

			if record.Empty() {
				t.Error("record is empty")
			}

			if record.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(record); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// CapabilityTest validates that provider capabilities are correctly declared
type CapabilityTest struct {
	Provider providers.Provider
}

// Run executes a capability test
func (ct *CapabilityTest) Run(t *testing.T) {
	caps := ct.Provider.Capabilities()

	if caps.Protocol == "" {
		t.Error("protocol not set")
	}
	if caps.Kind == "" {
		t.Error("kind not set")
	}
	if caps.Version == "" {
		t.Error("version not set")
	}
	if ct.Provider.ID() == "" {
		t.Error("provider ID not set")
	}
}
