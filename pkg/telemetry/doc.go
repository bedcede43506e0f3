// Package telemetry provides observability for the gateway.
//
// It has two subpackages:
//
//   - logging: structured logging on log/slog with level and format
//     configuration, plus context helpers for request and session IDs
//   - metrics: Prometheus metrics for admission decisions, inference
//     latency, unit consumption, and store health
package telemetry
