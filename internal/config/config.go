// Package config loads the client configuration from YAML with environment
// variable expansion, applied defaults, and validation.
package config

import "time"

// Config is the root configuration for the playground client.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig locates the session coordinator and the bearer token used in
// the connection handshake. Token and TokenFile are mutually exclusive;
// TokenFile wins when both are set so on-disk refresh keeps working.
type ServerConfig struct {
	WSURL     string `yaml:"ws_url"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// ReconnectConfig tunes the backoff between reconnection attempts. The
// delay for attempt n is min(max_delay, base_delay * 2^n).
type ReconnectConfig struct {
	BaseDelay      time.Duration `yaml:"base_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	AuthCloseLimit int           `yaml:"auth_close_limit"`
}

// SessionConfig tunes per-connection behavior.
type SessionConfig struct {
	EventBufferSize  int           `yaml:"event_buffer_size"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}
