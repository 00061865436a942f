package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aralila/playground-client/internal/config"
	"github.com/aralila/playground-client/internal/connection"
	"github.com/aralila/playground-client/internal/game"
	"github.com/aralila/playground-client/internal/protocol"
	"github.com/aralila/playground-client/internal/session"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <room>",
		Short: "Join a story room directly, skipping the lobby",
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

			return runGame(ctx, cfg, args[0], nil)
		},
	}
}

// runGame drives one story session: join, render coordinator events, read
// contributions from stdin, leave on exit.
func runGame(ctx context.Context, cfg *config.Config, room string, turnOrder []string) error {
	logger := newLogger()
	tokens := tokenProvider(cfg)

	url := roomURL(cfg.Server.WSURL, "story", room, flagName)
	mgr := connection.NewManager(managerConfig(cfg, url), tokens, logger)
	store := session.New(game.NewState(flagName, turnOrder), game.Apply, mgr, logger)

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer stopAll(mgr, store)

	if err := store.Start(ctx); err != nil {
		return err
	}

	gameCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsub := store.Subscribe(func(snap session.Snapshot[game.State]) {
		renderGame(snap)
		if snap.State.Over || snap.Status == connection.StatusAuthExpired {
			cancel()
		}
	})
	defer unsub()

	g, gctx := errgroup.WithContext(gameCtx)

	g.Go(func() error {
		logDiagnostics(gctx, logger, store.Diagnostics())
		return nil
	})

	g.Go(func() error {
		return joinOnOpen(gctx, store)
	})

	// The stdin reader cannot be interrupted mid-Scan, so it stays out of the
	// shutdown wait; otherwise the final summary would be gated on a keypress.
	go func() {
		_ = readInput(gctx, store, flagName, os.Stdin)
	}()

	fmt.Printf("Joined story room %q as %s. Type your contribution and press enter.\n", room, flagName)

	<-gctx.Done()
	_ = g.Wait()

	// Best effort: tell the coordinator we are leaving.
	_ = store.Dispatch(protocol.NewPlayerLeave(flagName))

	final := store.State()
	if final.Over {
		fmt.Println("Game over! Final scores:")
		for _, p := range final.Players {
			fmt.Printf("  %s: %d\n", p, final.Scores[p])
		}
		if final.FinalMessage != "" {
			fmt.Println(final.FinalMessage)
		}
	}
	return nil
}

// joinOnOpen sends the join request whenever the connection (re)opens, so a
// reconnect re-enters the room on the fresh transport.
func joinOnOpen(ctx context.Context, store *session.Store[game.State]) error {
	ch := make(chan connection.Status, 4)
	unsub := store.Subscribe(func(snap session.Snapshot[game.State]) {
		select {
		case ch <- snap.Status:
		default:
		}
	})
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-ch:
			if status == connection.StatusOpen {
				if err := store.Dispatch(protocol.NewPlayerJoin(flagName)); err != nil {
					// The transport may have dropped again already; the next
					// open will retry.
					continue
				}
			}
		}
	}
}

// readInput forwards input lines as move submissions when it is the local
// player's turn.
func readInput(ctx context.Context, store *session.Store[game.State], player string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		state := store.State()
		if state.Over {
			return nil
		}
		if !state.IsLocalTurn() {
			fmt.Printf("It's %s's turn, hang on.\n", state.CurrentTurn)
			continue
		}

		if err := store.Dispatch(protocol.NewSubmitSentence(player, text)); err != nil {
			fmt.Printf("Could not send (%v), try again.\n", err)
		}
	}
	return scanner.Err()
}

func renderGame(snap session.Snapshot[game.State]) {
	switch snap.Status {
	case connection.StatusReconnecting:
		fmt.Println("[reconnecting...]")
		return
	case connection.StatusAuthExpired:
		fmt.Println("[session expired - please sign in again]")
		return
	}

	s := snap.State
	if len(s.Story) > 0 {
		last := s.Story[len(s.Story)-1]
		fmt.Printf("%s: %s\n", last.Player, last.Text)
	}
	if s.LastEvaluation != nil {
		fmt.Printf("Sentence complete: %q scored %d\n", s.LastEvaluation.Sentence, s.LastEvaluation.Score)
	}
	if s.CurrentTurn != "" && !s.Over {
		marker := ""
		if s.IsLocalTurn() {
			marker = " (your turn!)"
		}
		fmt.Printf("Turn: %s%s - %ds | image %d/%d\n",
			s.CurrentTurn, marker, s.TimeLeft, s.ImageIndex+1, s.TotalImages)
	}
}
