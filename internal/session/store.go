package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aralila/playground-client/internal/connection"
	"github.com/aralila/playground-client/internal/protocol"
)

// Conn is the slice of the connection manager a store depends on.
type Conn interface {
	Events() <-chan connection.Event
	Send(msg protocol.Outbound) error
}

// Reducer is a pure state-transition function applied per inbound message.
type Reducer[S any] func(S, protocol.Message) (S, error)

// Snapshot pairs the reduced state with the connection status so
// presentation can render a "reconnecting" indicator without a second
// subscription.
type Snapshot[S any] struct {
	State  S
	Status connection.Status
}

// Listener receives a snapshot after each committed transition. Listeners
// run on the store's event goroutine, strictly after the commit.
type Listener[S any] func(Snapshot[S])

// Diagnostic is a non-fatal fault surfaced on the side channel: a semantic
// rejection by the reducer, a malformed frame, or a coordinator error.
type Diagnostic struct {
	Err error
	Msg protocol.Message // the rejected message, when applicable
	At  time.Time
}

// DiagBufferSize bounds the diagnostics side channel.
const DiagBufferSize = 64

// Store owns the reduced state for one session.
type Store[S any] struct {
	reduce Reducer[S]
	conn   Conn
	logger *slog.Logger

	mu     sync.RWMutex
	state  S
	status connection.Status

	subsMu  sync.Mutex
	subs    map[int]Listener[S]
	nextSub int

	diags chan Diagnostic

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Store with the given initial state and reducer. The caller
// keeps ownership of the connection manager.
func New[S any](initial S, reduce Reducer[S], conn Conn, logger *slog.Logger) *Store[S] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store[S]{
		reduce: reduce,
		conn:   conn,
		logger: logger,
		state:  initial,
		status: connection.StatusConnecting,
		subs:   make(map[int]Listener[S]),
		diags:  make(chan Diagnostic, DiagBufferSize),
	}
}

// Start begins consuming connection events.
func (s *Store[S]) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	return nil
}

// Stop halts event consumption. The connection manager is not touched; the
// caller owns its lifecycle.
func (s *Store[S]) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("session store stop timed out")
	}
	return nil
}

// State returns the current reduced state snapshot.
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the current connection status.
func (s *Store[S]) Status() connection.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store[S]) Subscribe(l Listener[S]) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = l
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Diagnostics returns the side channel of non-fatal faults.
func (s *Store[S]) Diagnostics() <-chan Diagnostic {
	return s.diags
}

// Dispatch sends a user action to the coordinator. The local state is left
// alone: the coordinator is the sole source of truth and the store waits for
// the echoed event instead of applying the action optimistically.
func (s *Store[S]) Dispatch(msg protocol.Outbound) error {
	return s.conn.Send(msg)
}

// loop is the single consumer of the session's event stream.
func (s *Store[S]) loop() {
	defer s.wg.Done()

	events := s.conn.Events()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}

			switch ev.Kind {
			case connection.KindMessage:
				s.apply(ev)

			case connection.KindStatus:
				s.mu.Lock()
				s.status = ev.Status
				s.mu.Unlock()
				s.notify()

			case connection.KindDiagnostic:
				s.logger.Warn("connection diagnostic", "error", ev.Err)
				s.pushDiag(Diagnostic{Err: ev.Err, At: ev.ReceivedAt})
			}
		}
	}
}

// apply reduces one message and commits the result. Listeners fire after
// the commit; a rejected message leaves state untouched and becomes a
// diagnostic.
func (s *Store[S]) apply(ev connection.Event) {
	s.mu.RLock()
	old := s.state
	s.mu.RUnlock()

	next, err := s.reduce(old, ev.Msg)
	if err != nil {
		s.logger.Warn("reducer rejected message",
			"error", err,
			"generation", ev.Generation,
		)
		s.pushDiag(Diagnostic{Err: err, Msg: ev.Msg, At: ev.ReceivedAt})
		return
	}

	if srv, ok := ev.Msg.(protocol.ServerError); ok {
		s.pushDiag(Diagnostic{Err: &CoordinatorError{Message: srv.Message}, Msg: ev.Msg, At: ev.ReceivedAt})
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	// Unknown kinds are ignored by reducers; no transition to announce.
	if _, unknown := ev.Msg.(protocol.Unknown); unknown {
		s.logger.Debug("ignoring unknown message kind")
		return
	}

	s.notify()
}

// notify delivers the committed snapshot to every listener, in subscription
// order, from the event goroutine.
func (s *Store[S]) notify() {
	s.mu.RLock()
	snap := Snapshot[S]{State: s.state, Status: s.status}
	s.mu.RUnlock()

	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener[S], 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// pushDiag records a diagnostic without ever blocking the event loop. When
// the buffer is full the oldest entry is dropped.
func (s *Store[S]) pushDiag(d Diagnostic) {
	select {
	case s.diags <- d:
	default:
		select {
		case <-s.diags:
			s.diags <- d
		default:
		}
	}
}

// CoordinatorError is a coordinator-reported rejection of a client action.
type CoordinatorError struct {
	Message string
}

func (e *CoordinatorError) Error() string {
	return "coordinator error: " + e.Message
}
