// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream simulates token-by-token output for answers that arrive
// whole.
//
// The backend returns complete answers; the Renderer reveals them in
// fixed-size slices with a fixed delay so the transcript reads like a live
// generation. This is purely a presentation effect: the committed turn
// always stores the full, unsliced text.
package stream

import (
	"context"
	"time"
)

const (
	// DefaultSliceSize is the number of runes revealed per emission.
	DefaultSliceSize = 50

	// DefaultDelay is the pause between emissions.
	DefaultDelay = 30 * time.Millisecond
)

// Renderer slices text into progressively longer prefixes.
type Renderer struct {
	// SliceSize is the number of runes added per emission.
	SliceSize int

	// Delay is the pause between emissions.
	Delay time.Duration
}

// New creates a renderer with default settings.
func New() *Renderer {
	return &Renderer{
		SliceSize: DefaultSliceSize,
		Delay:     DefaultDelay,
	}
}

// NewWithConfig creates a renderer with custom settings. Non-positive
// values fall back to defaults.
func NewWithConfig(sliceSize int, delay time.Duration) *Renderer {
	if sliceSize <= 0 {
		sliceSize = DefaultSliceSize
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Renderer{SliceSize: sliceSize, Delay: delay}
}

// Stream returns a channel that yields progressively longer prefixes of
// text, one slice at a time, with the configured delay between emissions.
// The channel is closed after the final value, which is always the full
// text. The sequence is finite and cannot be restarted; call Stream again
// for a fresh pass.
//
// Cancelling the context stops emission early and closes the channel.
func (r *Renderer) Stream(ctx context.Context, text string) <-chan string {
	ch := make(chan string)

	go func() {
		defer close(ch)

		prefixes := r.Prefixes(text)
		for i, p := range prefixes {
			select {
			case ch <- p:
			case <-ctx.Done():
				return
			}

			// No trailing delay after the final emission.
			if i == len(prefixes)-1 {
				return
			}

			select {
			case <-time.After(r.Delay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Prefixes returns the full emission sequence without any delay. Slicing is
// rune-aware so multi-byte characters are never split mid-sequence.
func (r *Renderer) Prefixes(text string) []string {
	if text == "" {
		return nil
	}

	size := r.SliceSize
	if size <= 0 {
		size = DefaultSliceSize
	}

	runes := []rune(text)
	prefixes := make([]string, 0, (len(runes)+size-1)/size)
	for i := size; ; i += size {
		if i >= len(runes) {
			prefixes = append(prefixes, text)
			return prefixes
		}
		prefixes = append(prefixes, string(runes[:i]))
	}
}
