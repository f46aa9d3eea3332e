// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the docchat TUI.

The chat package implements the terminal chat interface using the
Bubble Tea framework. It renders the conversation transcript, the
evidence panel, and the input line, and bridges session events into
Bubble Tea messages.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model:
  - Transcript viewport and evidence panel
  - Input handling, including masked prompts for admin credentials
  - Streaming display of in-flight answers
  - Responsive layout (narrow stacks the panels, wide splits them)

## Update Loop (update.go)

Handles keyboard input, window resizes, and the session event
messages delivered through the Bridge.

## Commands (commands.go)

Slash command handling:
  - /help    - Show available commands
  - /admin   - Authenticate for admin operations
  - /upload  - Ingest documents (admin only)
  - /topk    - Set the number of retrieved snippets
  - /export  - Export the conversation to markdown or text
  - /clear   - Clear the conversation
  - /quit    - Exit

## Bridge (bridge.go)

Bind wires session callbacks to program.Send so session events
arrive in the update loop as typed messages.
*/
package chat
