// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech defines the optional voice input/output capability.
//
// The client works fully without speech. Providers wrap an external
// recognizer or synthesizer; when none is available the Noop
// implementations keep the call sites unconditional.
package speech

import "context"

// =============================================================================
// CAPABILITY INTERFACES
// =============================================================================

// Input captures one spoken utterance and returns its transcription.
type Input interface {
	// Listen blocks until an utterance is transcribed, the context is
	// cancelled, or the provider fails.
	Listen(ctx context.Context) (string, error)

	// Available reports whether the provider can actually capture
	// audio in this environment.
	Available() bool
}

// Output speaks an answer aloud.
type Output interface {
	// Speak pronounces text. Implementations should return once
	// playback is queued, not once it finishes.
	Speak(ctx context.Context, text string) error

	// Available reports whether the provider can produce audio.
	Available() bool
}

// =============================================================================
// NOOP PROVIDERS
// =============================================================================

// NoopInput is the always-unavailable input provider.
type NoopInput struct{}

// Listen never transcribes anything.
func (NoopInput) Listen(ctx context.Context) (string, error) {
	return "", ErrUnavailable
}

// Available always reports false.
func (NoopInput) Available() bool { return false }

// NoopOutput is the always-unavailable output provider.
type NoopOutput struct{}

// Speak discards the text.
func (NoopOutput) Speak(ctx context.Context, text string) error {
	return ErrUnavailable
}

// Available always reports false.
func (NoopOutput) Available() bool { return false }
