// Package cli implements the playground command-line client.
package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aralila/playground-client/internal/auth"
	"github.com/aralila/playground-client/internal/config"
	"github.com/aralila/playground-client/internal/connection"
)

var (
	flagConfig  string
	flagServer  string
	flagName    string
	flagToken   string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	// Local .env files carry the token during development; missing is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "playground",
		Short: "Client for the Aralila playground session coordinator",
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", os.Getenv("PLAYGROUND_CONFIG"), "path to YAML config file")
	root.PersistentFlags().StringVarP(&flagServer, "server", "s", envOrDefault("PLAYGROUND_SERVER", "ws://localhost:8000"), "coordinator base URL (ws:// or wss://)")
	root.PersistentFlags().StringVarP(&flagName, "name", "n", os.Getenv("PLAYGROUND_NAME"), "player display name")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token (overrides config and env)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newJoinCmd(),
		newPlayCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves configuration: explicit config file when given,
// otherwise defaults overridden by flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.LoadAndValidate(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if flagServer != "" && (flagConfig == "" || cfg.Server.WSURL == "") {
		cfg.Server.WSURL = flagServer
	}
	if flagToken != "" {
		cfg.Server.Token = flagToken
		cfg.Server.TokenFile = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// tokenProvider picks the bearer token source: flag/config token, token
// file, then the PLAYGROUND_TOKEN environment variable.
func tokenProvider(cfg *config.Config) auth.TokenProvider {
	switch {
	case cfg.Server.TokenFile != "":
		return auth.FromFile(cfg.Server.TokenFile)
	case cfg.Server.Token != "":
		return auth.Static(cfg.Server.Token)
	case os.Getenv("PLAYGROUND_TOKEN") != "":
		return auth.FromEnv("PLAYGROUND_TOKEN")
	default:
		return auth.Static("")
	}
}

// managerConfig maps the file config onto a connection ManagerConfig for one
// room URL.
func managerConfig(cfg *config.Config, roomURL string) connection.ManagerConfig {
	mc := connection.DefaultManagerConfig()
	mc.URL = roomURL
	mc.ReconnectBaseDelay = cfg.Reconnect.BaseDelay
	mc.ReconnectMaxDelay = cfg.Reconnect.MaxDelay
	mc.AuthCloseLimit = cfg.Reconnect.AuthCloseLimit
	mc.EventBufferSize = cfg.Session.EventBufferSize
	mc.Client.HandshakeTimeout = cfg.Session.HandshakeTimeout
	mc.Client.PingInterval = cfg.Session.PingInterval
	mc.Client.PingTimeout = cfg.Session.PingTimeout
	mc.Client.WriteTimeout = cfg.Session.WriteTimeout
	return mc
}

// roomURL builds the coordinator endpoint for a session kind and room.
func roomURL(base, kind, room, player string) string {
	base = strings.TrimRight(base, "/")
	return fmt.Sprintf("%s/ws/%s/%s/?player=%s", base, kind, url.PathEscape(room), url.QueryEscape(player))
}

func requireName() error {
	if flagName == "" {
		return fmt.Errorf("player name is required (--name or PLAYGROUND_NAME)")
	}
	return nil
}
