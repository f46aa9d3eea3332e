// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates no admin key exists in the keystore.
	// The gate fails closed: without a configured key nobody can
	// authenticate.
	ErrNotConfigured = errors.New("no admin key configured")

	// ErrInvalidKey indicates the presented key did not match.
	ErrInvalidKey = errors.New("invalid admin key")

	// ErrInvalidCode indicates the TOTP code was missing or wrong.
	ErrInvalidCode = errors.New("invalid one-time code")
)

// =============================================================================
// GATE
// =============================================================================

// Gate validates admin credentials against a keystore.
type Gate struct {
	keystore *Keystore

	// now is overridable for TOTP tests.
	now func() time.Time
}

// NewGate creates a gate backed by the given keystore.
func NewGate(ks *Keystore) *Gate {
	return &Gate{keystore: ks, now: time.Now}
}

// Configured reports whether an admin key exists in the keystore.
func (g *Gate) Configured() bool {
	return g.keystore.AdminKey() != ""
}

// RequiresCode reports whether a TOTP second factor is configured.
func (g *Gate) RequiresCode() bool {
	return g.keystore.TOTPSecret() != ""
}

// Authenticate checks the presented key against the stored one.
//
// When a TOTP secret is configured, Authenticate fails with
// ErrInvalidCode and the caller must use AuthenticateWithCode.
func (g *Gate) Authenticate(key string) error {
	stored := g.keystore.AdminKey()
	if stored == "" {
		return ErrNotConfigured
	}
	if key != stored {
		return ErrInvalidKey
	}
	if g.RequiresCode() {
		return ErrInvalidCode
	}
	return nil
}

// AuthenticateWithCode checks the presented key and, when a TOTP
// secret is configured, the one-time code. With no secret configured
// the code is ignored.
func (g *Gate) AuthenticateWithCode(key, code string) error {
	stored := g.keystore.AdminKey()
	if stored == "" {
		return ErrNotConfigured
	}
	if key != stored {
		return ErrInvalidKey
	}

	secret := g.keystore.TOTPSecret()
	if secret == "" {
		return nil
	}

	valid, err := totp.ValidateCustom(code, secret, g.now().UTC(), totp.ValidateOpts{
		Period: 30,
		Skew:   1,
		Digits: otp.DigitsSix,
	})
	if err != nil || !valid {
		return ErrInvalidCode
	}
	return nil
}
