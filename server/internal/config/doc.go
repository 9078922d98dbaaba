// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort: port for the REST API, ingest endpoint and WebSocket hub (default 8080)
//   - Auth.Mode: "apikey" or "none"; Auth.KeyEnv names the variable holding the key
//   - Auth.Header: HTTP header name (default "X-API-Key")
//   - Snapshot.TTL: how long a business snapshot remains live (default 24h)
//   - Scoring: fetch_timeout (10s), rate_limit (1 rps), burst (5), session_ttl (30m)
//   - DataSource: data source for on-demand calculations (default simulated)
//   - Kafka: brokers and topic for the snapshot publisher (disabled when empty)
//   - CORS.AllowedOrigins: browser origins allowed to call the API (default "*")
//   - Alerts: rules and webhooks
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
