// Package broadcast pushes aggregate snapshots to dashboard subscribers over
// websockets.
//
// Each subscriber runs its own timer loop, independent of message arrival
// rate. A failed tick delivers an error payload to that subscriber and the
// loop continues after a longer backoff; one subscriber's fate never affects
// the others or the ingestion path.
package broadcast
