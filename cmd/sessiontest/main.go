// sessiontest connects to a coordinator room and dumps decoded session
// events to the console. Useful for poking at the wire protocol without the
// full client.
//
// Usage: go run ./cmd/sessiontest --server ws://localhost:8000 --kind story --room demo --player tester
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aralila/playground-client/internal/auth"
	"github.com/aralila/playground-client/internal/connection"
	"github.com/aralila/playground-client/internal/protocol"
)

func main() {
	server := flag.String("server", "ws://localhost:8000", "coordinator base URL")
	kind := flag.String("kind", "story", "session kind: lobby or story")
	room := flag.String("room", "demo", "room name")
	player := flag.String("player", "tester", "player display name")
	join := flag.Bool("join", false, "send a player_join after connecting")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := connection.DefaultManagerConfig()
	cfg.URL = fmt.Sprintf("%s/ws/%s/%s/?player=%s",
		strings.TrimRight(*server, "/"), *kind, url.PathEscape(*room), url.QueryEscape(*player))

	var tokens auth.TokenProvider = auth.Static("")
	if os.Getenv("PLAYGROUND_TOKEN") != "" {
		tokens = auth.FromEnv("PLAYGROUND_TOKEN")
	}

	mgr := connection.NewManager(cfg, tokens, logger)
	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to start connection manager", "error", err)
		os.Exit(1)
	}

	// The events channel only closes inside Stop, so the consumer runs on its
	// own goroutine and main blocks on the context.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range mgr.Events() {
			switch ev.Kind {
			case connection.KindStatus:
				logger.Info("status", "status", ev.Status.String(), "generation", ev.Generation)
				if ev.Status == connection.StatusOpen && *join {
					if err := mgr.Send(protocol.NewPlayerJoin(*player)); err != nil {
						logger.Warn("join failed", "error", err)
					}
				}
				if ev.Status == connection.StatusAuthExpired {
					cancel()
				}

			case connection.KindDiagnostic:
				logger.Warn("diagnostic", "error", ev.Err)

			case connection.KindMessage:
				printMessage(ev, *verbose)
			}
		}
	}()

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer stopCancel()
	mgr.Stop(stopCtx)
	<-drained
}

func printMessage(ev connection.Event, verbose bool) {
	name := fmt.Sprintf("%T", ev.Msg)
	name = strings.TrimPrefix(name, "protocol.")

	if verbose {
		data, _ := json.Marshal(ev.Msg)
		fmt.Printf("%s %s %s\n", ev.ReceivedAt.Format(time.RFC3339Nano), name, data)
		return
	}

	switch m := ev.Msg.(type) {
	case protocol.StoryUpdate:
		fmt.Printf("story  %s: %s\n", m.Player, m.Text)
	case protocol.TurnUpdate:
		fmt.Printf("turn   %s (%ds)\n", m.NextPlayer, m.TimeLimit)
	case protocol.NewImage:
		fmt.Printf("image  %d/%d %s\n", m.ImageIndex+1, m.TotalImages, m.ImageURL)
	case protocol.GameComplete:
		fmt.Printf("done   scores=%v\n", m.Scores)
	case protocol.Unknown:
		fmt.Printf("?      type=%s\n", m.Type)
	default:
		fmt.Printf("%-6s %+v\n", name, ev.Msg)
	}
}
