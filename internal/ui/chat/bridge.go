// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
)

// =============================================================================
// SESSION BRIDGE
// =============================================================================

// Bind wires session callbacks to the Bubble Tea program so session
// events arrive in the update loop as typed messages. Call after the
// program is constructed and before it runs.
func Bind(p *tea.Program, s *session.Session) {
	s.SetStateChangedCallback(func(state session.State) {
		p.Send(SessionStateMsg{State: state})
	})
	s.SetTurnAppendedCallback(func(turn *model.Turn) {
		p.Send(TurnAppendedMsg{Turn: turn})
	})
	s.SetEvidenceUpdatedCallback(func(evidence []model.Evidence) {
		p.Send(EvidenceUpdatedMsg{Evidence: evidence})
	})
	s.SetStreamChunkCallback(func(partial string) {
		p.Send(StreamChunkMsg{Partial: partial})
	})
}
