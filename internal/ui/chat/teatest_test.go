// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/stream"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// End to end smoke test over a terminal emulator. Session events are
// fed directly since there is no running Bridge in the harness.
func TestChat_EndToEnd(t *testing.T) {
	sess := session.New(session.Config{
		Querier:  &fakeQuerier{answer: "Indexes map terms to documents."},
		Renderer: &stream.Renderer{SliceSize: 1000, Delay: time.Microsecond},
	})
	m := New(Options{
		Session:      sess,
		Theme:        styles.NewThemeWithBackground(true),
		ShowEvidence: true,
	})

	tm := teatest.NewTestModel(t, m,
		teatest.WithInitialTermSize(100, 30),
	)

	tm.Type("how do indexes work")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// The QueryDoneMsg from submitCmd arrives through the program;
	// deliver the committed turns the way the Bridge would.
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return len(sess.History()) == 2
	}, teatest.WithDuration(5*time.Second))

	for _, turn := range sess.History() {
		tm.Send(TurnAppendedMsg{Turn: turn})
	}

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Indexes map terms to documents."))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(Model)
	require.True(t, ok)
	assert.Len(t, final.Session().History(), 2)
}
