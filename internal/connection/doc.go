// Package connection implements the session transport layer.
//
// A Client wraps a single WebSocket connection to the session coordinator.
// A Manager owns at most one live Client per session and:
//   - reconnects after unexpected closes with capped exponential backoff
//   - tags every connection attempt with a generation id and discards
//     traffic from superseded attempts
//   - decodes inbound frames and emits typed events on one ordered channel
//   - treats repeated auth-expired closes as terminal instead of retrying
package connection
