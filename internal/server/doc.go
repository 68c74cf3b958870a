// Package server exposes the dashboard API: recent messages, aggregate
// queries, the streaming subscription endpoint, health checks, and metrics.
package server
