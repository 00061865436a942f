package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStatic(t *testing.T) {
	token, err := Static("abc123").Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q", token)
	}

	// Empty is a valid unauthenticated handshake.
	token, err = Static("").Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TEST_AUTH_TOKEN", "env-token")

	provider := FromEnv("TEST_AUTH_TOKEN")
	token, err := provider.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "env-token" {
		t.Errorf("token = %q", token)
	}

	// Each call re-reads, so a refreshed value is picked up.
	t.Setenv("TEST_AUTH_TOKEN", "rotated")
	token, err = provider.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "rotated" {
		t.Errorf("token = %q, want rotated", token)
	}
}

func TestFromEnv_Unset(t *testing.T) {
	if _, err := FromEnv("TEST_AUTH_TOKEN_DOES_NOT_EXIST").Token(); err == nil {
		t.Fatal("expected error for unset variable")
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  file-token\n"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	provider := FromFile(path)
	token, err := provider.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "file-token" {
		t.Errorf("token = %q, want trimmed contents", token)
	}

	// External refresh on disk is visible on the next call.
	if err := os.WriteFile(path, []byte("rotated"), 0o600); err != nil {
		t.Fatalf("rewrite token file: %v", err)
	}
	token, err = provider.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "rotated" {
		t.Errorf("token = %q, want rotated", token)
	}
}

func TestFromFile_MissingOrEmpty(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope")).Token(); err == nil {
		t.Fatal("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	if _, err := FromFile(empty).Token(); err == nil {
		t.Fatal("expected error for empty file")
	}
}
