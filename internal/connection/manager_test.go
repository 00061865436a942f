package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aralila/playground-client/internal/protocol"
)

func testManagerConfig(url string) ManagerConfig {
	cfg := DefaultManagerConfig()
	cfg.URL = url
	cfg.ReconnectBaseDelay = 20 * time.Millisecond
	cfg.ReconnectMaxDelay = 100 * time.Millisecond
	cfg.EventBufferSize = 32
	cfg.Client.PingInterval = 50 * time.Millisecond
	cfg.Client.PingTimeout = 2 * time.Second
	return cfg
}

func TestBackoffDelay(t *testing.T) {
	cfg := ManagerConfig{
		ReconnectBaseDelay: 1000 * time.Millisecond,
		ReconnectMaxDelay:  10000 * time.Millisecond,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 2000 * time.Millisecond},
		{2, 4000 * time.Millisecond},
		{3, 8000 * time.Millisecond},
		{4, 10000 * time.Millisecond},
		{5, 10000 * time.Millisecond},
		{20, 10000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := cfg.backoffDelay(tt.attempt); got != tt.want {
				t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDeliver_DropsSupersededGeneration(t *testing.T) {
	m := NewManager(testManagerConfig("ws://unused"), nil, nil)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	defer m.cancel()

	// Two attempts have happened; generation 2 is active.
	m.gen.Add(1)
	m.gen.Add(1)

	m.deliver(Event{
		Kind:       KindMessage,
		Generation: 1,
		Msg:        protocol.PlayerJoined{Player: "Ana"},
		ReceivedAt: time.Now(),
	})

	select {
	case ev := <-m.events:
		t.Fatalf("stale event was delivered: %+v", ev)
	default:
	}

	m.deliver(Event{
		Kind:       KindMessage,
		Generation: 2,
		Msg:        protocol.PlayerJoined{Player: "Bea"},
		ReceivedAt: time.Now(),
	})

	select {
	case ev := <-m.events:
		if ev.Generation != 2 {
			t.Errorf("Generation = %d, want 2", ev.Generation)
		}
	default:
		t.Fatal("current-generation event was not delivered")
	}
}

func TestIsAuthClose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth close code", &websocket.CloseError{Code: CloseAuthExpired}, true},
		{"wrapped auth close", fmt.Errorf("read: %w", &websocket.CloseError{Code: CloseAuthExpired}), true},
		{"normal close", &websocket.CloseError{Code: websocket.CloseNormalClosure}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAuthClose(tt.err); got != tt.want {
				t.Errorf("isAuthClose = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_ReconnectsAndResumesDelivery(t *testing.T) {
	var conns atomic.Int32

	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		n := conns.Add(1)
		if n == 1 {
			// First connection dies immediately; the manager must dial again.
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"player_list","players":["Ana","Bea"]}`))
		conn.ReadMessage()
	})
	defer server.Close()

	m := NewManager(testManagerConfig(wsURL(server)), nil, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	var sawReconnecting bool
	var opens int
	deadline := time.After(5 * time.Second)

	for {
		select {
		case ev := <-m.Events():
			switch ev.Kind {
			case KindStatus:
				switch ev.Status {
				case StatusReconnecting:
					sawReconnecting = true
				case StatusOpen:
					opens++
				}
			case KindMessage:
				list, ok := ev.Msg.(protocol.PlayerList)
				if !ok {
					t.Fatalf("expected PlayerList, got %T", ev.Msg)
				}
				if len(list.Players) != 2 {
					t.Errorf("players = %v", list.Players)
				}
				if !sawReconnecting {
					t.Error("message arrived before a reconnecting status was seen")
				}
				if opens < 2 {
					t.Errorf("opens = %d, want at least 2", opens)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for post-reconnect message")
		}
	}
}

func TestManager_GivesUpAfterRepeatedAuthCloses(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseAuthExpired, "token expired"),
			time.Now().Add(time.Second),
		)
		conn.ReadMessage()
	})
	defer server.Close()

	cfg := testManagerConfig(wsURL(server))
	cfg.AuthCloseLimit = 2

	m := NewManager(cfg, nil, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	var sawDiagnostic bool
	deadline := time.After(5 * time.Second)

	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == KindDiagnostic && errors.Is(ev.Err, ErrAuthExpired) {
				sawDiagnostic = true
			}
			if ev.Kind == KindStatus && ev.Status == StatusAuthExpired {
				if !sawDiagnostic {
					t.Error("terminal status arrived without an auth diagnostic")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for auth_expired status")
		}
	}
}

func TestManager_StopCancelsPendingBackoff(t *testing.T) {
	// A server that is immediately closed leaves a refused address behind, so
	// every dial fails fast and the manager sits in its backoff wait.
	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {})
	url := wsURL(server)
	server.Close()

	cfg := testManagerConfig(url)
	cfg.ReconnectBaseDelay = 30 * time.Second
	cfg.ReconnectMaxDelay = 30 * time.Second

	m := NewManager(cfg, nil, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let the first dial fail and the backoff timer arm.
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		stopManager(t, m)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not interrupt the backoff wait")
	}

	// The event channel closes on Stop.
	for {
		select {
		case _, ok := <-m.Events():
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("event channel never closed")
		}
	}
}

func TestManager_StopUnblocksEventConsumer(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {})
	url := wsURL(server)
	server.Close()

	cfg := testManagerConfig(url)
	cfg.ReconnectBaseDelay = 30 * time.Second
	cfg.ReconnectMaxDelay = 30 * time.Second

	m := NewManager(cfg, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range m.Events() {
		}
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	// Cancelling the context stops the run loop but leaves the channel open;
	// a ranging consumer must keep blocking until Stop closes it.
	select {
	case <-drained:
		t.Fatal("consumer exited before Stop closed the channel")
	case <-time.After(100 * time.Millisecond):
	}

	stopManager(t, m)

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer still blocked after Stop")
	}
}

func TestManager_SendWhileDisconnected(t *testing.T) {
	m := NewManager(testManagerConfig("ws://127.0.0.1:0"), nil, nil)

	err := m.Send(protocol.NewPlayerJoin("Ana"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func stopManager(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
