package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"domainlens/internal/platform/config"
	"domainlens/internal/platform/httpserver"
	"domainlens/internal/platform/logger"
	platformmetrics "domainlens/internal/platform/metrics"
	"domainlens/internal/platform/redis"
	"domainlens/internal/registry/bootstrap"
	"domainlens/internal/registry/bootstrap/store"
	"domainlens/internal/registry/handler"
	registrymetrics "domainlens/internal/registry/metrics"
	"domainlens/internal/registry/normalize"
	"domainlens/internal/registry/orchestrator"
	"domainlens/internal/registry/providers"
	"domainlens/internal/registry/providers/openrdap"
	"domainlens/internal/registry/providers/rdap"
	"domainlens/internal/registry/providers/whois"
	"domainlens/internal/registry/retry"
	"domainlens/internal/registry/service"
	httptransport "domainlens/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies explicitly and owns the server lifecycle. Lookup
// logic lives in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	regMetrics := registrymetrics.New(promReg)
	httpMetrics := platformmetrics.New(promReg)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var health httptransport.HealthChecker
	if redisClient != nil {
		defer redisClient.Close()
		health = redisClient
	}

	resolverOpts := []bootstrap.Option{
		bootstrap.WithDirectoryURL(cfg.Registry.BootstrapURL),
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(regMetrics),
	}
	if ttl := cfg.Registry.DirectoryCacheTTL; ttl > 0 {
		if redisClient != nil {
			resolverOpts = append(resolverOpts, bootstrap.WithStore(store.NewRedisDirectoryStore(redisClient.Client, ttl)))
		} else {
			resolverOpts = append(resolverOpts, bootstrap.WithStore(store.NewInMemoryDirectoryStore(ttl)))
		}
	}
	resolver := bootstrap.NewResolver(resolverOpts...)

	registry, err := buildRegistry(cfg, resolver, log)
	if err != nil {
		return err
	}

	normalizer, err := buildNormalizer(cfg.Normalizer, log)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Registry:   registry,
		Normalizer: normalizer,
		Policy: retry.Policy{
			Attempts:       cfg.Retry.Attempts,
			Delay:          cfg.Retry.Delay,
			AttemptTimeout: cfg.Retry.AttemptTimeout,
		},
		Logger:  log,
		Metrics: regMetrics,
	})
	if err != nil {
		return err
	}

	svc, err := service.New(orch,
		service.WithRDAPChain(cfg.Registry.RDAPStrategies),
		service.WithWhoisChain(cfg.Registry.WhoisStrategies),
		service.WithLogger(log),
		service.WithMetrics(regMetrics),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       promReg,
		Health:         health,
		Logger:         log,
	}, handler.New(svc, log, httpMetrics, cfg.Server.RequestTimeout))

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting domainlens",
			"addr", cfg.Server.Addr,
			"normalizer", normalizer.Name(),
			"rdap_chain", cfg.Registry.RDAPStrategies,
			"whois_chain", cfg.Registry.WhoisStrategies,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRegistry(cfg config.Config, resolver *bootstrap.Resolver, log *slog.Logger) (*providers.ProviderRegistry, error) {
	registry := providers.NewProviderRegistry()

	if err := registry.Register(rdap.New(resolver, rdap.WithLogger(log))); err != nil {
		return nil, err
	}

	openrdapProvider, err := openrdap.New(
		openrdap.WithDirectoryURL(cfg.Registry.BootstrapURL),
		openrdap.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(openrdapProvider); err != nil {
		return nil, err
	}

	whoisOpts := []whois.Option{whois.WithLogger(log)}
	if cfg.Registry.WhoisServer != "" {
		whoisOpts = append(whoisOpts, whois.WithServer(cfg.Registry.WhoisServer))
	}
	if err := registry.Register(whois.New(cfg.Retry.AttemptTimeout, whoisOpts...)); err != nil {
		return nil, err
	}

	// A misspelled strategy would otherwise fail every request.
	for _, c := range []struct {
		env string
		ids []string
	}{
		{"RDAP_STRATEGIES", cfg.Registry.RDAPStrategies},
		{"WHOIS_STRATEGIES", cfg.Registry.WhoisStrategies},
	} {
		if _, err := registry.Chain(c.ids); err != nil {
			return nil, fmt.Errorf("config: %s: %w", c.env, err)
		}
	}
	return registry, nil
}

func buildNormalizer(cfg config.NormalizerConfig, log *slog.Logger) (normalize.Normalizer, error) {
	var extractor normalize.Extractor
	if cfg.APIKey != "" {
		extractor = normalize.NewOpenAIExtractor(cfg.APIKey, cfg.BaseURL, cfg.Model)
	}
	return normalize.Select(cfg.Strategy, extractor,
		normalize.WithTimeout(cfg.Timeout),
		normalize.WithLogger(log),
	)
}
