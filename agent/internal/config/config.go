package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/localrank/localrank/pkg/signals"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultScoreInterval = time.Hour
	DefaultShipInterval  = 15 * time.Second
	DefaultBufferSize    = 1000
	DefaultFetchTimeout  = 10 * time.Second
	DefaultAuthHeader    = "X-API-Key"
)

// Config is the top-level agent configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerEndpoint is the base URL of localrank-server, e.g. http://localhost:8080.
	ServerEndpoint string `yaml:"server_endpoint"`

	// ScoreInterval controls how often every business is re-scored.
	ScoreInterval time.Duration `yaml:"score_interval"`

	// ShipInterval controls how often buffered snapshots are sent to the server.
	ShipInterval time.Duration `yaml:"ship_interval"`

	// BufferSize is the maximum number of snapshots held in memory when
	// the server is unreachable.
	BufferSize int `yaml:"buffer_size"`

	// FetchTimeout bounds a single data source fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// Businesses is the list of businesses to score.
	Businesses []Business `yaml:"businesses"`

	DataSource signals.Config `yaml:"data_source"`

	// ServerAuth configures how the agent authenticates to localrank-server.
	ServerAuth AuthConfig `yaml:"server_auth"`
}

// Business is one monitored business listing.
type Business struct {
	// ID is a unique, human-readable identifier for this business.
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// AuthConfig specifies how the agent authenticates to the server.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header to send the key in. Defaults to X-API-Key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ScoreInterval: DefaultScoreInterval,
			ShipInterval:  DefaultShipInterval,
			BufferSize:    DefaultBufferSize,
			FetchTimeout:  DefaultFetchTimeout,
			DataSource:    signals.Config{Type: signals.TypeSimulated},
			ServerAuth:    AuthConfig{Header: DefaultAuthHeader},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.ServerEndpoint == "" {
		return fmt.Errorf("agent.server_endpoint is required")
	}
	if a.ScoreInterval <= 0 {
		return fmt.Errorf("agent.score_interval must be positive")
	}
	if a.ShipInterval <= 0 {
		return fmt.Errorf("agent.ship_interval must be positive")
	}
	if a.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	if a.FetchTimeout <= 0 {
		return fmt.Errorf("agent.fetch_timeout must be positive")
	}
	seen := make(map[string]bool, len(a.Businesses))
	for i, b := range a.Businesses {
		if b.ID == "" {
			return fmt.Errorf("businesses[%d]: id is required", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("businesses[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
		if b.Name == "" {
			return fmt.Errorf("businesses[%d] %q: name is required", i, b.ID)
		}
		if b.Address == "" {
			return fmt.Errorf("businesses[%d] %q: address is required", i, b.ID)
		}
	}
	if err := a.DataSource.Validate("agent.data_source"); err != nil {
		return err
	}
	switch a.ServerAuth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("agent.server_auth: unknown mode %q", a.ServerAuth.Mode)
	}
	return nil
}
