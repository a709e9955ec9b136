package config

import (
	"fmt"
	"log/slog"
)

// KeyringManager documents the hub's credential-adjacent keychain path
// without importing an OS keychain binding: nothing in this build
// performs an OS keyring round trip, so this stays an intentionally
// unwired stub (see DESIGN.md) rather than a real github.com/zalando/
// go-keyring dependency with nothing to exercise it. The shape mirrors a
// conventional KeyringManager so a real backend can be dropped in later
// without touching callers.
const (
	// KeyringService names the OS keychain service devac would use once a
	// real backend is wired.
	KeyringService = "DevAC"

	// KeyringHubTokenItem is the keychain item for the federation hub's
	// auth token.
	KeyringHubTokenItem = "hub-auth-token"
)

// KeyringManager is the stub credential backend. Every method documents
// what a real OS keychain binding would do; none of them touch the OS.
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new (stub) keyring manager.
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{logger: slog.Default().With("component", "keyring")}
}

// SetHubAuthToken would store the hub's auth token in the OS keychain; the
// stub always reports it as unavailable.
func (km *KeyringManager) SetHubAuthToken(token string) error {
	return fmt.Errorf("keyring: no OS keychain backend wired in this build")
}

// GetHubAuthToken always returns ("", nil): no token is ever found by the
// stub, which is indistinguishable from "not configured" to callers.
func (km *KeyringManager) GetHubAuthToken() (string, error) {
	return "", nil
}

// DeleteHubAuthToken is a no-op on the stub.
func (km *KeyringManager) DeleteHubAuthToken() error {
	return nil
}

// IsAvailable always reports false: this build carries no OS keychain
// binding, so callers fall through to the config-file/env tiers of the
// credential priority chain.
func (km *KeyringManager) IsAvailable() bool {
	return false
}

// MaskToken masks a secret for display: first 4 and last 4 characters,
// "..." between.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
