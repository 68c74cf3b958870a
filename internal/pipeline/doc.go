// Package pipeline drives ingestion: each chat event is classified,
// persisted, and recorded in the sentiment cache, one message at a time.
//
// Failure handling follows a strict hierarchy: a classification error skips
// the cache update but still persists the message; a persistence error never
// blocks the cache update. Only a closed event channel stops the loop.
package pipeline
