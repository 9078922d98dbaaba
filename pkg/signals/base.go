package signals

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localrank/localrank/pkg/types"
)

const defaultRequestTimeout = 10 * time.Second

// Source returns the raw signals for one business. Implementations must honour
// ctx cancellation and must not retain the returned value.
type Source interface {
	Fetch(ctx context.Context, name, address string) (*types.RawSignals, error)
}

// New returns the Source selected by cfg.Type. It builds the HTTP client once
// and reuses it across fetches. When cfg.Cache.RedisAddr is set the source is
// wrapped in a Redis cache; the returned value then also implements io.Closer.
func New(cfg Config) (Source, error) {
	var src Source
	switch cfg.Type {
	case "", TypeSimulated:
		delay := cfg.Delay
		if delay == 0 {
			delay = DefaultSimulatedDelay
		}
		src = NewSimulated(delay, cfg.FailureRate, rand.New(rand.NewSource(time.Now().UnixNano())))
	case TypeHTTP, TypeExporter:
		client, err := buildHTTPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("signals: build http client: %w", err)
		}
		if cfg.Type == TypeHTTP {
			src = &apiSource{endpoint: cfg.Endpoint, client: client}
		} else {
			src = &exporterSource{endpoint: cfg.Endpoint, client: client}
		}
	default:
		return nil, fmt.Errorf("signals: unsupported type %q", cfg.Type)
	}

	if cfg.Cache.RedisAddr == "" {
		return src, nil
	}
	ttl := cfg.Cache.TTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	return WithCache(src, rdb, ttl), nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.HeaderName(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth and TLS settings.
func buildHTTPClient(cfg Config) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if cfg.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(cfg.Auth.CertFile, cfg.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if cfg.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(cfg.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", cfg.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	return &http.Client{
		Transport: &authRoundTripper{
			base: &http.Transport{TLSClientConfig: tlsCfg},
			auth: cfg.Auth,
		},
		Timeout: defaultRequestTimeout,
	}, nil
}
