package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/localrank/localrank/pkg/signals"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "total < 40", "google_position > 20",
	// "fetch_success_pct < 80", "rating == POOR".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultSnapshotTTL  = 24 * time.Hour
	DefaultFetchTimeout = 10 * time.Second
	DefaultRateLimit    = 1.0
	DefaultBurst        = 5
	DefaultSessionTTL   = 30 * time.Minute
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, ingest endpoint and WebSocket hub
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates agents and API clients.
	Auth AuthConfig `yaml:"auth"`

	// Snapshot controls in-memory snapshot retention.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`

	// Scoring controls on-demand calculations served by POST /api/v1/score.
	Scoring ScoringConfig `yaml:"scoring"`

	// DataSource is used by on-demand calculations.
	DataSource signals.Config `yaml:"data_source"`

	// Kafka enables publishing every ingested snapshot when Brokers is non-empty.
	Kafka KafkaConfig `yaml:"kafka"`

	CORS CORSConfig `yaml:"cors"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "X-API-Key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// SnapshotConfig controls in-memory snapshot retention.
type SnapshotConfig struct {
	// TTL is how long a business's snapshot remains in the store after its last
	// update. Default: 24h.
	TTL time.Duration `yaml:"ttl"`
}

// ScoringConfig controls on-demand score calculations.
type ScoringConfig struct {
	// FetchTimeout bounds one data source fetch (default 10s).
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RateLimit is the sustained per-client request rate in requests per
	// second; Burst is the bucket size.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	// SessionTTL is how long an idle session is kept (default 30m).
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// KafkaConfig configures the snapshot publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether publishing is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// CORSConfig lists the origins allowed to call the REST API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Snapshot: SnapshotConfig{
				TTL: DefaultSnapshotTTL,
			},
			Scoring: ScoringConfig{
				FetchTimeout: DefaultFetchTimeout,
				RateLimit:    DefaultRateLimit,
				Burst:        DefaultBurst,
				SessionTTL:   DefaultSessionTTL,
			},
			DataSource: signals.Config{Type: signals.TypeSimulated},
			Kafka:      KafkaConfig{Topic: "localrank.snapshots"},
			CORS:       CORSConfig{AllowedOrigins: []string{"*"}},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Snapshot.TTL < 0 {
		return fmt.Errorf("server.snapshot.ttl must not be negative")
	}
	if s.Scoring.FetchTimeout <= 0 {
		return fmt.Errorf("server.scoring.fetch_timeout must be positive")
	}
	if s.Scoring.RateLimit <= 0 || s.Scoring.Burst <= 0 {
		return fmt.Errorf("server.scoring.rate_limit and burst must be positive")
	}
	if s.Scoring.SessionTTL <= 0 {
		return fmt.Errorf("server.scoring.session_ttl must be positive")
	}
	if err := s.DataSource.Validate("server.data_source"); err != nil {
		return err
	}
	if s.Kafka.Enabled() && s.Kafka.Topic == "" {
		return fmt.Errorf("server.kafka.topic is required when brokers are set")
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" || r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name and condition are required", i)
		}
	}
	for i, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}
