// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth gates admin-only operations behind a shared key.
//
// The key is read from an env-style keystore file (by default
// ~/.docchat/.env). Authentication is a plain comparison against the
// stored key; the backend performs its own check on every ingest
// request, so the client-side gate is a UX convenience, not a
// security boundary.
package auth

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// =============================================================================
// KEYSTORE
// =============================================================================

// Env-style keystore entries recognized by the gate.
const (
	// AdminKeyEntry holds the shared admin API key.
	AdminKeyEntry = "ADMIN_API_KEY"

	// TOTPSecretEntry optionally holds a base32 TOTP secret. When
	// present, admin authentication additionally requires a valid
	// one-time code.
	TOTPSecretEntry = "ADMIN_TOTP_SECRET"
)

// Keystore reads admin credentials from an env-style file.
//
// A missing or unreadable file is not an error: the keystore loads
// empty and the gate fails closed. Entries use KEY=VALUE syntax, one
// per line; blank lines and lines starting with '#' are skipped, and
// single or double quotes around values are stripped.
type Keystore struct {
	path string

	mu      sync.RWMutex
	entries map[string]string
}

// NewKeystore creates a keystore bound to the given file path and
// performs an initial load.
func NewKeystore(path string) *Keystore {
	ks := &Keystore{
		path:    path,
		entries: make(map[string]string),
	}
	ks.Reload()
	return ks
}

// DefaultKeystorePath returns the default keystore location.
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".docchat", ".env")
	}
	return filepath.Join(home, ".docchat", ".env")
}

// Path returns the file path this keystore reads from.
func (ks *Keystore) Path() string {
	return ks.path
}

// Reload re-reads the keystore file. On read failure the previous
// entries are discarded so a deleted keystore revokes access.
func (ks *Keystore) Reload() error {
	entries, err := parseEnvFile(ks.path)

	ks.mu.Lock()
	if err != nil {
		ks.entries = make(map[string]string)
	} else {
		ks.entries = entries
	}
	ks.mu.Unlock()

	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read keystore: %w", err)
	}
	return nil
}

// AdminKey returns the stored admin key, or "" when not configured.
func (ks *Keystore) AdminKey() string {
	return ks.get(AdminKeyEntry)
}

// TOTPSecret returns the stored TOTP secret, or "" when the second
// factor is not configured.
func (ks *Keystore) TOTPSecret() string {
	return ks.get(TOTPSecretEntry)
}

func (ks *Keystore) get(name string) string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.entries[name]
}

// =============================================================================
// ENV FILE PARSING
// =============================================================================

// parseEnvFile reads KEY=VALUE pairs from an env-style file.
func parseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(map[string]string)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Tolerate the common "export KEY=VALUE" form.
		line = strings.TrimPrefix(line, "export ")

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		value = unquote(value)

		if name != "" {
			entries[name] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
