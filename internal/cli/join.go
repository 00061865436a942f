package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aralila/playground-client/internal/config"
	"github.com/aralila/playground-client/internal/connection"
	"github.com/aralila/playground-client/internal/lobby"
	"github.com/aralila/playground-client/internal/session"
)

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room>",
		Short: "Join a lobby and play the story game when it starts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireName(); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runLobby(ctx, cfg, args[0])
		},
	}
}

// runLobby connects to the lobby, renders roster changes, and hands off into
// the game session when the coordinator announces start.
func runLobby(ctx context.Context, cfg *config.Config, room string) error {
	logger := newLogger()
	tokens := tokenProvider(cfg)

	url := roomURL(cfg.Server.WSURL, "lobby", room, flagName)
	mgr := connection.NewManager(managerConfig(cfg, url), tokens, logger)
	store := session.New(lobby.NewState(flagName), lobby.Apply, mgr, logger)

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer stopAll(mgr, store)

	if err := store.Start(ctx); err != nil {
		return err
	}

	started := make(chan []string, 1)
	unsub := store.Subscribe(func(snap session.Snapshot[lobby.State]) {
		renderLobby(snap)
		if snap.State.Phase == lobby.PhaseStarting {
			select {
			case started <- snap.State.TurnOrder:
			default:
			}
		}
	})
	defer unsub()

	go logDiagnostics(ctx, logger, store.Diagnostics())

	fmt.Printf("Waiting in lobby %q as %s...\n", room, flagName)

	select {
	case <-ctx.Done():
		return nil
	case turnOrder := <-started:
		fmt.Printf("Game starting! Turn order: %s\n", strings.Join(turnOrder, " -> "))
		// Lobby session is done; tear it down before entering the game so
		// its late messages cannot touch game state.
		stopAll(mgr, store)
		return runGame(ctx, cfg, room, turnOrder)
	}
}

func renderLobby(snap session.Snapshot[lobby.State]) {
	switch snap.Status {
	case connection.StatusReconnecting:
		fmt.Println("[reconnecting...]")
		return
	case connection.StatusAuthExpired:
		fmt.Println("[session expired - please sign in again]")
		return
	}

	if len(snap.State.Players) > 0 {
		host := ""
		if snap.State.IsHost {
			host = " (you are host)"
		}
		fmt.Printf("Players: %s%s\n", strings.Join(snap.State.Players, ", "), host)
	}
	if len(snap.State.Departed) > 0 {
		fmt.Printf("Left: %s\n", strings.Join(snap.State.Departed, ", "))
	}
}

// stopAll tears down a store and its manager with a short deadline.
func stopAll(mgr *connection.Manager, store interface {
	Stop(context.Context) error
}) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	store.Stop(ctx)
	mgr.Stop(ctx)
}

func logDiagnostics(ctx context.Context, logger *slog.Logger, diags <-chan session.Diagnostic) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-diags:
			if !ok {
				return
			}
			logger.Warn("session diagnostic", "error", d.Err)
		}
	}
}
