// Package metrics declares the Prometheus collectors exported by
// localrank-server at /metrics. Collectors are registered with the default
// registry via promauto.
package metrics
