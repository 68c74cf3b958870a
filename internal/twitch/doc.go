// Package twitch implements the anonymous IRC-over-websocket chat client.
//
// The client keeps one connection for the configured channel set and emits
// decoded chat events on a channel that closes when the connection dies.
// There is deliberately no reconnection logic here; the caller observes the
// closed event channel and decides whether to restart.
package twitch
