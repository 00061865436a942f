package connection

import (
	"errors"
	"time"

	"github.com/aralila/playground-client/internal/protocol"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAuthExpired     = errors.New("session token expired")
)

// CloseAuthExpired is the WebSocket close code the coordinator sends when the
// bearer token is rejected or has expired. It is non-retryable once it
// repeats AuthCloseLimit times in a row.
const CloseAuthExpired = 4401

// Status is the lifecycle state of a managed connection.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusReconnecting
	StatusClosed
	StatusAuthExpired
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	case StatusAuthExpired:
		return "auth_expired"
	default:
		return "unknown"
	}
}

// EventKind discriminates Manager events.
type EventKind int

const (
	// KindMessage carries a decoded coordinator message.
	KindMessage EventKind = iota
	// KindStatus carries a connection lifecycle change.
	KindStatus
	// KindDiagnostic carries a non-fatal fault (e.g. a malformed frame).
	KindDiagnostic
)

// Event is what the Manager emits on its ordered per-session channel.
// Generation identifies the connection attempt that produced it; events from
// superseded generations are dropped before they reach this channel.
type Event struct {
	Kind       EventKind
	Generation uint64
	Msg        protocol.Message // set when Kind == KindMessage
	Status     Status           // set when Kind == KindStatus
	Err        error            // set when Kind == KindDiagnostic
	ReceivedAt time.Time
}

// TimestampedMessage wraps raw frame bytes with the receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	URL              string        // coordinator room URL (ws:// or wss://)
	Token            string        // opaque bearer token for the handshake
	ClientID         string        // per-session client id, sent as a header
	HandshakeTimeout time.Duration // dial deadline
	PingInterval     time.Duration // keepalive ping cadence
	PingTimeout      time.Duration // max silence before the connection is stale
	WriteTimeout     time.Duration // write deadline for sends
	BufferSize       int           // inbound message channel buffer
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     15 * time.Second,
		PingTimeout:      45 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures a connection Manager.
type ManagerConfig struct {
	URL                string        // coordinator room URL
	ReconnectBaseDelay time.Duration // first retry delay
	ReconnectMaxDelay  time.Duration // retry delay cap
	AuthCloseLimit     int           // consecutive auth closes before giving up
	EventBufferSize    int           // outbound event channel buffer
	Client             ClientConfig  // per-connection settings (URL/Token filled in)
}

// DefaultManagerConfig returns sensible defaults. The backoff defaults match
// the coordinator's documented client contract: 1s doubling up to 10s.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  10 * time.Second,
		AuthCloseLimit:     3,
		EventBufferSize:    256,
		Client:             DefaultClientConfig(),
	}
}

// backoffDelay computes the reconnect delay for the given attempt number:
// min(max, base * 2^attempt). Attempt 0 waits the base delay.
func (c ManagerConfig) backoffDelay(attempt int) time.Duration {
	d := c.ReconnectBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= c.ReconnectMaxDelay {
			return c.ReconnectMaxDelay
		}
	}
	if d > c.ReconnectMaxDelay {
		return c.ReconnectMaxDelay
	}
	return d
}
