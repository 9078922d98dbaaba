// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - AgentConfig: server_endpoint, score_interval, ship_interval, buffer_size,
//     fetch_timeout, businesses [], data_source, server_auth
//   - Business: id, name, address
//   - AuthConfig: mode (apikey|none), header, key_env; Key() resolves from the
//     environment
//
// Load(path) reads the YAML file, applies defaults (1h score, 15s ship,
// 1000 buffer, 10s fetch timeout, simulated data source), then validates
// required fields, enums and business id uniqueness.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a reload.
package config
