// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// MaxTurns is the maximum number of turns to keep in the transcript.
// When exceeded, the oldest turns are pruned to prevent unbounded memory
// growth during long sessions.
const MaxTurns = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered, append-only chat transcript.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Turns, oldest first
	Turns []*Turn `json:"turns"`
}

// NewConversation creates a new empty conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        generateConversationID(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Turns:     make([]*Turn, 0),
	}
}

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// AddTurn appends a turn to the transcript.
func (c *Conversation) AddTurn(t *Turn) {
	c.Turns = append(c.Turns, t)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldTurns()
}

// AddUserTurn creates and appends a user turn.
func (c *Conversation) AddUserTurn(content string) *Turn {
	t := NewUserTurn(content)
	c.AddTurn(t)
	return t
}

// AddAssistantTurn creates and appends an assistant turn.
func (c *Conversation) AddAssistantTurn(content string) *Turn {
	t := NewAssistantTurn(content)
	c.AddTurn(t)
	return t
}

// AddErrorTurn creates and appends an assistant turn marked as an error.
func (c *Conversation) AddErrorTurn(content string) *Turn {
	t := NewErrorTurn(content)
	c.AddTurn(t)
	return t
}

// LastTurn returns the most recent turn, or nil if the transcript is empty.
func (c *Conversation) LastTurn() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return c.Turns[len(c.Turns)-1]
}

// LastUserTurn returns the most recent user turn, or nil.
func (c *Conversation) LastUserTurn() *Turn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return c.Turns[i]
		}
	}
	return nil
}

// History returns a copy of the turn slice. Rendering works from this copy,
// so a view can be replayed any number of times without touching the
// transcript itself.
func (c *Conversation) History() []*Turn {
	out := make([]*Turn, len(c.Turns))
	copy(out, c.Turns)
	return out
}

// Clone returns a copy of the conversation. Turns are immutable once
// appended, so the copy shares them; the slice and metadata are
// independent.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Turns = c.History()
	return &out
}

// Len returns the number of turns in the transcript.
func (c *Conversation) Len() int {
	return len(c.Turns)
}

// Clear removes all turns. The conversation identity is kept.
func (c *Conversation) Clear() {
	c.Turns = c.Turns[:0]
	c.Title = ""
	c.UpdatedAt = time.Now()
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// updateTitle derives the conversation title from the first user turn.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, t := range c.Turns {
		if t.Role == RoleUser && !t.IsEmpty() {
			c.Title = t.Preview(50)
			return
		}
	}
}

// pruneOldTurns drops the oldest turns once MaxTurns is exceeded.
func (c *Conversation) pruneOldTurns() {
	if len(c.Turns) <= MaxTurns {
		return
	}
	excess := len(c.Turns) - MaxTurns
	c.Turns = append(c.Turns[:0:0], c.Turns[excess:]...)
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
