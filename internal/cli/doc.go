// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli provides the plain-terminal chat interface.

The cli package is the fallback for terminals where the full TUI is
unsuitable (dumb terminals, pipes, --plain). It offers the same
session operations as the TUI through a readline-style REPL with
input history, markdown-rendered answers, and the shared slash
command set.
*/
package cli
