package config

import "time"

// Default values for optional configuration fields. The reconnect defaults
// match the coordinator's documented client contract.
const (
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 10 * time.Second
	DefaultAuthCloseLimit     = 3
	DefaultEventBufferSize    = 256
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultPingTimeout        = 45 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultReconnectBaseDelay
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultReconnectMaxDelay
	}
	if c.Reconnect.AuthCloseLimit == 0 {
		c.Reconnect.AuthCloseLimit = DefaultAuthCloseLimit
	}

	if c.Session.EventBufferSize == 0 {
		c.Session.EventBufferSize = DefaultEventBufferSize
	}
	if c.Session.HandshakeTimeout == 0 {
		c.Session.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Session.PingInterval == 0 {
		c.Session.PingInterval = DefaultPingInterval
	}
	if c.Session.PingTimeout == 0 {
		c.Session.PingTimeout = DefaultPingTimeout
	}
	if c.Session.WriteTimeout == 0 {
		c.Session.WriteTimeout = DefaultWriteTimeout
	}
}
