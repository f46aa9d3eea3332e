// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// TURN TESTS
// =============================================================================

func TestNewUserTurn(t *testing.T) {
	turn := NewUserTurn("Hello")

	if turn.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", turn.Role)
	}
	if turn.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", turn.Content)
	}
	if turn.IsError {
		t.Error("user turn should not be marked as error")
	}
}

func TestNewErrorTurn(t *testing.T) {
	turn := NewErrorTurn("backend unreachable")

	if turn.Role != RoleAssistant {
		t.Errorf("Role = %q, want 'assistant'", turn.Role)
	}
	if !turn.IsError {
		t.Error("error turn should be marked as error")
	}
}

func TestTurn_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hi", 10, "hi"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewUserTurn(tc.content).Preview(tc.maxLen)
			if got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestRole_DisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "You" {
		t.Errorf("DisplayName() = %q, want 'You'", got)
	}
	if got := RoleAssistant.DisplayName(); got != "Assistant" {
		t.Errorf("DisplayName() = %q, want 'Assistant'", got)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddTurns(t *testing.T) {
	conv := NewConversation()

	conv.AddUserTurn("What is X?")
	conv.AddAssistantTurn("X is a thing.")

	if conv.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", conv.Len())
	}
	if conv.Turns[0].Role != RoleUser || conv.Turns[1].Role != RoleAssistant {
		t.Error("turns out of order")
	}
}

func TestConversation_TitleFromFirstUserTurn(t *testing.T) {
	conv := NewConversation()
	conv.AddUserTurn("How do I configure the backend?")

	if conv.Title != "How do I configure the backend?" {
		t.Errorf("Title = %q", conv.Title)
	}

	// Title is sticky after the first user turn.
	conv.AddUserTurn("Second question")
	if conv.Title != "How do I configure the backend?" {
		t.Errorf("Title changed to %q", conv.Title)
	}
}

func TestConversation_HistoryIsACopy(t *testing.T) {
	conv := NewConversation()
	conv.AddUserTurn("hello")

	hist := conv.History()
	hist[0] = nil

	if conv.Turns[0] == nil {
		t.Error("mutating the History copy must not touch the transcript")
	}

	// Replaying a render (taking History again) must not grow the transcript.
	_ = conv.History()
	_ = conv.History()
	if conv.Len() != 1 {
		t.Errorf("Len() = %d after repeated History calls, want 1", conv.Len())
	}
}

func TestConversation_PruneOldTurns(t *testing.T) {
	conv := NewConversation()

	for i := 0; i < MaxTurns+10; i++ {
		conv.AddUserTurn("turn")
	}

	if conv.Len() != MaxTurns {
		t.Errorf("Len() = %d, want %d", conv.Len(), MaxTurns)
	}
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.AddUserTurn(strings.Repeat("x", 10))
	conv.Clear()

	if conv.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", conv.Len())
	}
	if conv.Title != "" {
		t.Errorf("Title = %q after Clear, want empty", conv.Title)
	}
}

// =============================================================================
// EVIDENCE TESTS
// =============================================================================

func TestNewEvidence(t *testing.T) {
	ev := NewEvidence("some passage")

	if ev.Text != "some passage" {
		t.Errorf("Text = %q", ev.Text)
	}
	if ev.Source != "unknown" {
		t.Errorf("Source = %q, want 'unknown'", ev.Source)
	}
}
