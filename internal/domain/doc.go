// Package domain defines the core types and repository interfaces shared
// across the ingestion pipeline, the cache, and the HTTP layer.
package domain
