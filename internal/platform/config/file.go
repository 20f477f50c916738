package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// fileConfig mirrors the YAML overlay. Unset keys leave the current value.
// The extractor API key is deliberately env-only.
type fileConfig struct {
	Addr           string    `yaml:"addr"`
	RequestTimeout *Duration `yaml:"request_timeout"`
	AllowedOrigins []string  `yaml:"allowed_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Registry struct {
		BootstrapURL      string    `yaml:"bootstrap_url"`
		DirectoryCacheTTL *Duration `yaml:"directory_cache_ttl"`
		WhoisServer       string    `yaml:"whois_server"`
		RDAPStrategies    []string  `yaml:"rdap_strategies"`
		WhoisStrategies   []string  `yaml:"whois_strategies"`
	} `yaml:"registry"`

	Retry struct {
		Attempts       *int      `yaml:"attempts"`
		Delay          *Duration `yaml:"delay"`
		AttemptTimeout *Duration `yaml:"attempt_timeout"`
	} `yaml:"retry"`

	Normalizer struct {
		Strategy string    `yaml:"strategy"`
		BaseURL  string    `yaml:"base_url"`
		Model    string    `yaml:"model"`
		Timeout  *Duration `yaml:"timeout"`
	} `yaml:"normalizer"`

	Redis struct {
		URL      string `yaml:"url"`
		PoolSize *int   `yaml:"pool_size"`
	} `yaml:"redis"`
}

// LoadFromPath overlays the YAML file at path onto cfg.
func LoadFromPath(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	fc.applyTo(cfg)
	return nil
}

func (fc *fileConfig) applyTo(cfg *Config) {
	setStr(&cfg.Server.Addr, fc.Addr)
	setDuration(&cfg.Server.RequestTimeout, fc.RequestTimeout)
	setList(&cfg.Server.AllowedOrigins, fc.AllowedOrigins)

	setStr(&cfg.Log.Level, fc.Log.Level)
	setStr(&cfg.Log.Format, fc.Log.Format)

	setStr(&cfg.Registry.BootstrapURL, fc.Registry.BootstrapURL)
	setDuration(&cfg.Registry.DirectoryCacheTTL, fc.Registry.DirectoryCacheTTL)
	setStr(&cfg.Registry.WhoisServer, fc.Registry.WhoisServer)
	setList(&cfg.Registry.RDAPStrategies, fc.Registry.RDAPStrategies)
	setList(&cfg.Registry.WhoisStrategies, fc.Registry.WhoisStrategies)

	if fc.Retry.Attempts != nil {
		cfg.Retry.Attempts = *fc.Retry.Attempts
	}
	setDuration(&cfg.Retry.Delay, fc.Retry.Delay)
	setDuration(&cfg.Retry.AttemptTimeout, fc.Retry.AttemptTimeout)

	setStr(&cfg.Normalizer.Strategy, fc.Normalizer.Strategy)
	setStr(&cfg.Normalizer.BaseURL, fc.Normalizer.BaseURL)
	setStr(&cfg.Normalizer.Model, fc.Normalizer.Model)
	setDuration(&cfg.Normalizer.Timeout, fc.Normalizer.Timeout)

	setStr(&cfg.Redis.URL, fc.Redis.URL)
	if fc.Redis.PoolSize != nil {
		cfg.Redis.PoolSize = *fc.Redis.PoolSize
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}
