// Package config decodes the process-level configuration knobs named in
// spec §6: server bind address, persistence location, rule-catalog
// path, and the messaging-provider stub's append-log path.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures every module-level configuration knob.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" json:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence" json:"persistence"`
	Rules       RulesConfig       `mapstructure:"rules" json:"rules"`
	Messaging   MessagingConfig   `mapstructure:"messaging" json:"messaging"`
	Secrets     SecretsConfig     `mapstructure:"secrets" json:"secrets"`
}

// ServerConfig configures the HTTP ingress (spec §6).
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port string `mapstructure:"port" json:"port"`
}

// PersistenceConfig configures the repository backend.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// RulesConfig points at the rule-catalog document loaded at startup.
type RulesConfig struct {
	CatalogPath string `mapstructure:"catalog_path" json:"catalog_path"`
}

// MessagingConfig configures the messaging-delivery backend (spec §6,
// SPEC_FULL.md §3.1).
type MessagingConfig struct {
	// LogPath is the append-log file the FileLogProvider stub writes to.
	LogPath string    `mapstructure:"log_path" json:"log_path"`
	SES     SESConfig `mapstructure:"ses" json:"ses"`
}

// SESConfig enables the SES-backed email provider when Enabled is true.
type SESConfig struct {
	Enabled          bool   `mapstructure:"enabled" json:"enabled"`
	From             string `mapstructure:"from" json:"from"`
	Region           string `mapstructure:"region" json:"region"`
	ConfigurationSet string `mapstructure:"configuration_set" json:"configuration_set"`
	// FromSecretKey, when set, names the pkg/secrets record the SES
	// provider resolves its from-address through instead of using From
	// directly. Empty disables secret-backed resolution.
	FromSecretKey string `mapstructure:"from_secret_key" json:"from_secret_key"`
}

// SecretsConfig selects and configures the pkg/secrets backend used to
// resolve SES credentials at rest.
type SecretsConfig struct {
	// Backend is one of "encrypted" (bun-backed, encrypted at rest,
	// default), "memory" (encrypted, not persisted; for dev/tests without
	// a database), or "static" (plaintext in-process; explicitly insecure,
	// for local development only).
	Backend string `mapstructure:"backend" json:"backend"`
	// EncryptionKey is a chacha20poly1305.KeySize-byte (32) key used by
	// the "encrypted"/"memory" backends. Falls back to an insecure
	// built-in development key (logged as a warning) when absent or
	// mis-sized.
	EncryptionKey string `mapstructure:"encryption_key" json:"encryption_key"`
	// CacheTTL, parsed with time.ParseDuration, wraps the resolver in a
	// CachingResolver when positive. Empty uses the default TTL.
	CacheTTL string `mapstructure:"cache_ttl" json:"cache_ttl"`
}

// Defaults returns the baseline configuration used when a field is
// absent from the decoded document.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Persistence: PersistenceConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		Rules: RulesConfig{
			CatalogPath: "rules.yaml",
		},
		Messaging: MessagingConfig{
			LogPath: "messages.log",
		},
		Secrets: SecretsConfig{
			Backend:  "encrypted",
			CacheTTL: "30s",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Persistence.Driver == "" {
		return errors.New("persistence.driver is required")
	}
	if c.Rules.CatalogPath == "" {
		return errors.New("rules.catalog_path is required")
	}
	if c.Messaging.SES.Enabled && c.Messaging.SES.From == "" {
		return errors.New("messaging.ses.from is required when messaging.ses.enabled")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx
// helpers, falling back to a lightweight decoder when cfgx returns a
// zero value (e.g. because the input isn't a recognized cfgx source).
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = defaults.Server.Port
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Persistence.DSN == "" {
		c.Persistence.DSN = defaults.Persistence.DSN
	}
	if c.Rules.CatalogPath == "" {
		c.Rules.CatalogPath = defaults.Rules.CatalogPath
	}
	if c.Messaging.LogPath == "" {
		c.Messaging.LogPath = defaults.Messaging.LogPath
	}
	if c.Secrets.Backend == "" {
		c.Secrets.Backend = defaults.Secrets.Backend
	}
	if c.Secrets.CacheTTL == "" {
		c.Secrets.CacheTTL = defaults.Secrets.CacheTTL
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
