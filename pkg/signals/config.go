package signals

import (
	"fmt"
	"os"
	"time"
)

// Source types accepted by New.
const (
	TypeSimulated = "simulated"
	TypeHTTP      = "http"
	TypeExporter  = "exporter"
)

// Defaults applied by New when fields are zero.
const (
	DefaultSimulatedDelay = 1500 * time.Millisecond
	DefaultCacheTTL       = 10 * time.Minute
)

// Config describes the data source. It is embedded under data_source in both
// the agent and the server YAML files.
type Config struct {
	// Type is one of: simulated | http | exporter. Empty selects simulated.
	Type string `yaml:"type"`

	// Endpoint is the base URL of the http adapter or the full URL of the
	// exporter endpoint. Unused by the simulated source.
	Endpoint string `yaml:"endpoint"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`

	// Delay is the artificial latency of the simulated source.
	Delay time.Duration `yaml:"delay"`

	// FailureRate is the probability in [0, 1] that a simulated fetch fails.
	FailureRate float64 `yaml:"failure_rate"`

	Cache CacheConfig `yaml:"cache"`
}

// AuthConfig specifies how an HTTP-backed source authenticates.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header the API key is sent in. Defaults to X-API-Key.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string { return getenv(a.KeyEnv) }

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string { return getenv(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return getenv(a.PasswordEnv) }

// HeaderName returns the API key header, defaulting to X-API-Key.
func (a AuthConfig) HeaderName() string {
	if a.Header == "" {
		return "X-API-Key"
	}
	return a.Header
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// CacheConfig enables the Redis signal cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// Validate checks the enums and required fields. prefix names the enclosing
// YAML key in error messages.
func (c Config) Validate(prefix string) error {
	switch c.Type {
	case "", TypeSimulated:
	case TypeHTTP, TypeExporter:
		if c.Endpoint == "" {
			return fmt.Errorf("%s.endpoint is required for type %q", prefix, c.Type)
		}
	default:
		return fmt.Errorf("%s: unknown type %q", prefix, c.Type)
	}
	switch c.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("%s: unknown auth mode %q", prefix, c.Auth.Mode)
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("%s.failure_rate must be within [0, 1]", prefix)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%s.delay must not be negative", prefix)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%s.cache.ttl must not be negative", prefix)
	}
	return nil
}
