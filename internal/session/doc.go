// Package session holds the reduced state for one active session.
//
// A Store consumes the connection manager's ordered event channel on a
// single goroutine, feeds each message through a pure reducer, commits the
// result, and then notifies subscribers. Because exactly one goroutine
// applies events, the reduced state needs no locking beyond the snapshot
// mutex, and listeners can never observe a half-applied reduction.
//
// User actions dispatched through the store are sent to the coordinator and
// nothing else: the local view only changes when the coordinator echoes the
// action back, so it can never diverge from the authoritative order.
package session
