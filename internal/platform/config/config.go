// Package config builds the server configuration.
//
// Sources, lowest precedence first:
//  1. built-in defaults
//  2. the YAML file named by $DOMAINLENS_CONFIG
//  3. environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration. A zero RequestTimeout is
// derived from the retry policy and chains, see LookupBudget.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level  string
	Format string
}

// RegistryConfig configures directory resolution and the fetch strategies.
type RegistryConfig struct {
	BootstrapURL      string
	DirectoryCacheTTL time.Duration
	WhoisServer       string
	RDAPStrategies    []string
	WhoisStrategies   []string
}

// RetryConfig is the per-strategy retry envelope.
type RetryConfig struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

// NormalizerConfig selects the normalization strategy and its extractor.
type NormalizerConfig struct {
	Strategy string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// RedisConfig holds connection settings for the shared directory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full server configuration. It is built once in main and
// passed down explicitly.
type Config struct {
	Server     Server
	Log        LogConfig
	Registry   RegistryConfig
	Retry      RetryConfig
	Normalizer NormalizerConfig
	Redis      RedisConfig
}

// DefaultAllowedOrigins are the front-end hosts allowed to call the API.
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"http://127.0.0.1:80",
	"https://hostingchecker.co",
	"https://www.hostingchecker.co",
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":3000",
			AllowedOrigins: DefaultAllowedOrigins,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Registry: RegistryConfig{
			BootstrapURL:      "https://data.iana.org/rdap/dns.json",
			DirectoryCacheTTL: time.Hour,
			RDAPStrategies:    []string{"rdap", "openrdap"},
			WhoisStrategies:   []string{"rdap", "openrdap", "whois"},
		},
		Retry: RetryConfig{
			Attempts:       3,
			Delay:          time.Second,
			AttemptTimeout: 8 * time.Second,
		},
		Normalizer: NormalizerConfig{
			Strategy: "parse",
			Timeout:  15 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// FromEnv builds a Config from defaults, the optional YAML overlay and the
// environment, then validates it.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("DOMAINLENS_CONFIG"); ok && path != "" {
		if err := LoadFromPath(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	env := envReader{lookup: lookup}
	if port := env.str("PORT"); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	env.setStr("DOMAINLENS_ADDR", &cfg.Server.Addr)
	env.setDuration("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	env.setList("CORS_ALLOWED_ORIGINS", &cfg.Server.AllowedOrigins)

	env.setStr("LOG_LEVEL", &cfg.Log.Level)
	env.setStr("LOG_FORMAT", &cfg.Log.Format)

	env.setStr("RDAP_BOOTSTRAP_URL", &cfg.Registry.BootstrapURL)
	env.setDuration("DIRECTORY_CACHE_TTL", &cfg.Registry.DirectoryCacheTTL)
	env.setStr("WHOIS_SERVER", &cfg.Registry.WhoisServer)
	env.setList("RDAP_STRATEGIES", &cfg.Registry.RDAPStrategies)
	env.setList("WHOIS_STRATEGIES", &cfg.Registry.WhoisStrategies)

	env.setInt("RETRY_ATTEMPTS", &cfg.Retry.Attempts)
	env.setDuration("RETRY_DELAY", &cfg.Retry.Delay)
	env.setDuration("ATTEMPT_TIMEOUT", &cfg.Retry.AttemptTimeout)

	env.setStr("NORMALIZER", &cfg.Normalizer.Strategy)
	env.setStr("ASSIST_API_KEY", &cfg.Normalizer.APIKey)
	env.setStr("ASSIST_BASE_URL", &cfg.Normalizer.BaseURL)
	env.setStr("ASSIST_MODEL", &cfg.Normalizer.Model)
	env.setDuration("ASSIST_TIMEOUT", &cfg.Normalizer.Timeout)

	env.setStr("REDIS_URL", &cfg.Redis.URL)

	if env.err != nil {
		return Config{}, env.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = cfg.LookupBudget() + requestSlack
	}
	return cfg, nil
}

// requestSlack covers resolve, normalize and response writing on top of the
// fetch budget.
const requestSlack = 2 * time.Second

// LookupBudget is the worst case for one lookup: every strategy of the longest
// chain exhausting its retry envelope, plus the extractor timeout when an
// assisted normalizer is configured.
func (c Config) LookupBudget() time.Duration {
	attempts := max(c.Retry.Attempts, 1)
	perStrategy := time.Duration(attempts)*c.Retry.AttemptTimeout + time.Duration(attempts-1)*c.Retry.Delay
	longest := max(len(c.Registry.RDAPStrategies), len(c.Registry.WhoisStrategies))
	budget := time.Duration(longest) * perStrategy
	if c.Normalizer.Strategy != "parse" {
		budget += c.Normalizer.Timeout
	}
	return budget
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("config: RETRY_ATTEMPTS must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Delay < 0 || c.Retry.AttemptTimeout < 0 {
		return fmt.Errorf("config: retry durations must not be negative")
	}
	if len(c.Registry.RDAPStrategies) == 0 || len(c.Registry.WhoisStrategies) == 0 {
		return fmt.Errorf("config: strategy chains must not be empty")
	}
	switch c.Normalizer.Strategy {
	case "parse":
	case "assisted", "layered":
		if c.Normalizer.APIKey == "" {
			return fmt.Errorf("config: NORMALIZER=%s requires ASSIST_API_KEY", c.Normalizer.Strategy)
		}
	default:
		return fmt.Errorf("config: unknown NORMALIZER %q", c.Normalizer.Strategy)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

// envReader applies environment overrides and keeps the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key string) string {
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}

func (e *envReader) setStr(key string, dst *string) {
	if v := e.str(key); v != "" {
		*dst = v
	}
}

func (e *envReader) setList(key string, dst *[]string) {
	v := e.str(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) setInt(key string, dst *int) {
	v := e.str(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = n
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	v := e.str(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = d
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("config: invalid %s: %w", key, err)
	}
}
