// Package cache holds the bounded in-memory window of recent messages and
// scores, and computes aggregate snapshots over it.
//
// The cache is the single source of truth for "current" sentiment. One writer
// (the ingestion pipeline) and any number of concurrent readers share it
// through a single RWMutex; the entry ring and the score ring are always
// mutated together under the write lock, so readers can never observe the two
// at different lengths.
package cache
