// Package auth supplies opaque bearer tokens for the coordinator handshake.
//
// The session layer never inspects tokens; issuance and refresh belong to
// the auth provider. Providers are consulted on every connection attempt so
// a token refreshed between reconnects is picked up automatically.
package auth

import (
	"fmt"
	"os"
	"strings"
)

// TokenProvider supplies the bearer token attached to each handshake.
type TokenProvider interface {
	Token() (string, error)
}

// TokenFunc adapts a function to the TokenProvider interface.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// Static returns a provider that always yields the same token. An empty
// token means an unauthenticated handshake.
func Static(token string) TokenProvider {
	return TokenFunc(func() (string, error) {
		return token, nil
	})
}

// FromEnv returns a provider that reads the token from an environment
// variable on every attempt.
func FromEnv(key string) TokenProvider {
	return TokenFunc(func() (string, error) {
		token := os.Getenv(key)
		if token == "" {
			return "", fmt.Errorf("environment variable %s is not set", key)
		}
		return token, nil
	})
}

// FromFile returns a provider that reads the token from a file on every
// attempt, trimming surrounding whitespace. Useful when an external agent
// refreshes the token on disk.
func FromFile(path string) TokenProvider {
	return TokenFunc(func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", path)
		}
		return token, nil
	})
}
