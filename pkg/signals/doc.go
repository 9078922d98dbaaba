// Package signals provides the data sources that return raw SEO signals for a
// business. Every source implements Source; the factory New(Config) returns
// the configured one, optionally wrapped in a Redis-backed cache.
//
// Implemented sources: simulated (simulated.go), JSON HTTP API (api.go) and
// Prometheus text exposition (exporter.go).
//
// Authentication (mTLS, API key, bearer token, basic) is handled by the shared
// authRoundTripper in base.go; HTTP-backed sources receive a pre-configured
// *http.Client from New().
package signals
