package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aralila/playground-client/internal/auth"
	"github.com/aralila/playground-client/internal/protocol"
)

// Manager owns the single connection for one session. It dials, pumps
// decoded events onto one ordered channel, and reconnects after unexpected
// closes. Each attempt gets a fresh generation id; anything produced by a
// superseded generation is discarded before it can touch session state.
type Manager struct {
	cfg      ManagerConfig
	tokens   auth.TokenProvider
	logger   *slog.Logger
	clientID string

	events chan Event

	mu     sync.RWMutex
	client Client
	status Status

	gen atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
}

// NewManager creates a connection Manager for one session.
func NewManager(cfg ManagerConfig, tokens auth.TokenProvider, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = auth.Static("")
	}
	clientID := uuid.NewString()

	return &Manager{
		cfg:      cfg,
		tokens:   tokens,
		logger:   logger.With("client_id", clientID),
		clientID: clientID,
		events:   make(chan Event, cfg.EventBufferSize),
		status:   StatusConnecting,
	}
}

// Start begins connecting and pumping events. It returns immediately; the
// first event on Events() reports the outcome of the initial attempt.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("connection manager started", "url", m.cfg.URL)
	return nil
}

// Stop tears the session down: the pending reconnect timer (if any) is
// cancelled, the transport closed, and the event channel closed. Idempotent.
func (m *Manager) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn("shutdown timeout, forcing close")
		}

		m.mu.Lock()
		if m.client != nil {
			m.client.Close()
			m.client = nil
		}
		m.status = StatusClosed
		m.mu.Unlock()

		close(m.events)
		m.logger.Info("connection manager stopped")
	})
	return nil
}

// Events returns the ordered per-session event channel.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Generation returns the id of the most recent connection attempt.
func (m *Manager) Generation() uint64 {
	return m.gen.Load()
}

// Send encodes and writes an outbound message on the live transport.
func (m *Manager) Send(msg protocol.Outbound) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return m.SendRaw(data)
}

// SendRaw writes raw bytes on the live transport. Fails with ErrNotConnected
// while disconnected or reconnecting.
func (m *Manager) SendRaw(data []byte) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}
	return client.Send(data)
}

// run is the connect/pump/reconnect loop. Exactly one run goroutine exists
// per Manager, so connection attempts are strictly sequential.
func (m *Manager) run() {
	defer m.wg.Done()

	attempt := 0
	authCloses := 0

	for {
		if m.ctx.Err() != nil {
			return
		}

		gen := m.gen.Add(1)

		token, err := m.tokens.Token()
		if err != nil {
			m.logger.Warn("token lookup failed", "error", err)
			m.deliver(Event{Kind: KindDiagnostic, Generation: gen, Err: err, ReceivedAt: time.Now()})
			if !m.waitBackoff(attempt) {
				return
			}
			attempt++
			continue
		}

		clientCfg := m.cfg.Client
		clientCfg.URL = m.cfg.URL
		clientCfg.Token = token
		clientCfg.ClientID = m.clientID

		client := NewClient(clientCfg, m.logger.With("generation", gen))

		if err := client.Connect(m.ctx); err != nil {
			m.logger.Warn("connect failed",
				"generation", gen,
				"attempt", attempt,
				"error", err,
			)
			m.setStatus(gen, StatusReconnecting)
			if !m.waitBackoff(attempt) {
				return
			}
			attempt++
			continue
		}

		// Successful open resets the attempt counter.
		attempt = 0
		m.setClient(client)
		m.setStatus(gen, StatusOpen)
		m.logger.Info("connected", "generation", gen)

		err = m.pump(client, gen)

		m.setClient(nil)
		client.Close()

		if m.ctx.Err() != nil {
			return
		}

		if isAuthClose(err) {
			authCloses++
			m.logger.Warn("closed by coordinator: auth expired",
				"generation", gen,
				"consecutive", authCloses,
			)
			if authCloses >= m.cfg.AuthCloseLimit {
				m.deliver(Event{Kind: KindDiagnostic, Generation: gen, Err: ErrAuthExpired, ReceivedAt: time.Now()})
				m.setStatus(gen, StatusAuthExpired)
				return
			}
		} else {
			authCloses = 0
		}

		m.logger.Warn("connection lost, scheduling reconnect",
			"generation", gen,
			"delay", m.cfg.backoffDelay(attempt),
			"error", err,
		)
		m.setStatus(gen, StatusReconnecting)
		if !m.waitBackoff(attempt) {
			return
		}
		attempt++
	}
}

// pump forwards decoded frames for one live connection until it fails.
// Malformed frames become diagnostics; the connection stays up.
func (m *Manager) pump(client Client, gen uint64) error {
	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()

		case err := <-client.Errors():
			return err

		case msg, ok := <-client.Messages():
			if !ok {
				return ErrStaleConnection
			}

			decoded, err := protocol.Decode(msg.Data)
			if err != nil {
				m.deliver(Event{
					Kind:       KindDiagnostic,
					Generation: gen,
					Err:        err,
					ReceivedAt: msg.ReceivedAt,
				})
				continue
			}

			m.deliver(Event{
				Kind:       KindMessage,
				Generation: gen,
				Msg:        decoded,
				ReceivedAt: msg.ReceivedAt,
			})
		}
	}
}

// deliver forwards an event unless its generation has been superseded.
func (m *Manager) deliver(ev Event) {
	if ev.Generation != m.gen.Load() {
		m.logger.Debug("dropping event from superseded connection",
			"generation", ev.Generation,
			"active", m.gen.Load(),
		)
		return
	}

	select {
	case m.events <- ev:
	case <-m.ctx.Done():
	}
}

// waitBackoff sleeps for the attempt's backoff delay on an explicit timer.
// Returns false if the manager was stopped while waiting, in which case no
// reconnect fires.
func (m *Manager) waitBackoff(attempt int) bool {
	timer := time.NewTimer(m.cfg.backoffDelay(attempt))
	defer timer.Stop()

	select {
	case <-m.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *Manager) setClient(c Client) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

func (m *Manager) setStatus(gen uint64, s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	m.deliver(Event{Kind: KindStatus, Generation: gen, Status: s, ReceivedAt: time.Now()})
}

// isAuthClose reports whether the connection died with the coordinator's
// auth-expired close code.
func isAuthClose(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) && closeErr.Code == CloseAuthExpired
}
