package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainlens/internal/platform/config"
	"domainlens/internal/registry/bootstrap"
	"domainlens/internal/registry/providers"
)

func TestBuildRegistry(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := bootstrap.NewResolver(bootstrap.WithLogger(log))

	t.Run("default chains resolve", func(t *testing.T) {
		registry, err := buildRegistry(config.Default(), resolver, log)
		require.NoError(t, err)

		chain, err := registry.Chain(config.Default().Registry.WhoisStrategies)
		require.NoError(t, err)
		assert.Len(t, chain, 3)
	})

	t.Run("unknown rdap strategy fails at startup", func(t *testing.T) {
		cfg := config.Default()
		cfg.Registry.RDAPStrategies = []string{"rdap", "openrdpa"}

		_, err := buildRegistry(cfg, resolver, log)
		require.ErrorIs(t, err, providers.ErrProviderNotFound)
		assert.Contains(t, err.Error(), "RDAP_STRATEGIES")
		assert.Contains(t, err.Error(), "openrdpa")
	})

	t.Run("unknown whois strategy fails at startup", func(t *testing.T) {
		cfg := config.Default()
		cfg.Registry.WhoisStrategies = []string{"whoisx"}

		_, err := buildRegistry(cfg, resolver, log)
		require.ErrorIs(t, err, providers.ErrProviderNotFound)
		assert.Contains(t, err.Error(), "WHOIS_STRATEGIES")
	})
}
