// Package metric provides Prometheus metrics for checkpoint I/O and the
// running simulation.
//
//   - prometheus.go: Registry with checkpoint counters and the HTTP handler
//   - collector.go: custom collector that samples live world state
//
// Metrics are exposed at /metrics in Prometheus format when the simulate
// command is started with a metrics address.
package metric
