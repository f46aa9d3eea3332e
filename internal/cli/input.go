// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/docchat-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// InputReader provides line editing and input history for the REPL.
// Arrow keys navigate history; Ctrl+C aborts the current prompt.
type InputReader struct {
	line        *liner.State
	historyFile string
}

// NewInputReader creates an InputReader with history loaded from the
// config directory.
func NewInputReader() *InputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &InputReader{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	r.loadHistory()
	return r
}

func (r *InputReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line of input with history support.
func (r *InputReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// ReadSecret reads a line without echoing it. Used for the admin key.
func (r *InputReader) ReadSecret(prompt string) (string, error) {
	return r.line.PasswordPrompt(prompt)
}

// saveHistory persists history with owner-only permissions.
func (r *InputReader) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (r *InputReader) Close() {
	r.saveHistory()
	r.line.Close()
}
