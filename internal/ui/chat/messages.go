// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types used by the chat
// interface. Session events are bridged into these types so all state
// changes flow through the update loop.
package chat

import (
	"github.com/jeranaias/docchat-tui/internal/ingest"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
)

// =============================================================================
// SESSION EVENT MESSAGES
// =============================================================================

// SessionStateMsg reports a session state transition.
type SessionStateMsg struct {
	State session.State
}

// TurnAppendedMsg delivers a turn committed to the conversation.
type TurnAppendedMsg struct {
	Turn *model.Turn
}

// EvidenceUpdatedMsg delivers the replaced evidence set.
type EvidenceUpdatedMsg struct {
	Evidence []model.Evidence
}

// StreamChunkMsg delivers a growing partial of the in-flight answer.
type StreamChunkMsg struct {
	Partial string
}

// QueryDoneMsg signals that a submitted query has finished, whether
// it succeeded or was rejected.
type QueryDoneMsg struct {
	Err error
}

// =============================================================================
// ADMIN MESSAGES
// =============================================================================

// AuthResultMsg reports the outcome of an authentication attempt.
type AuthResultMsg struct {
	Err error
	// NeedsCode is true when the key was accepted but a second
	// factor code is still required.
	NeedsCode bool
}

// IngestDoneMsg reports the outcome of a document upload batch.
type IngestDoneMsg struct {
	Result *ingest.BatchResult
	Err    error
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// ExportDoneMsg reports the outcome of a conversation export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// StatusMsg sets a transient status line message.
type StatusMsg struct {
	Text    string
	IsError bool
}

// ClearStatusMsg clears the transient status line.
type ClearStatusMsg struct{}

// KeystoreReloadedMsg signals that the admin keystore changed on
// disk and credentials may have rotated.
type KeystoreReloadedMsg struct{}
