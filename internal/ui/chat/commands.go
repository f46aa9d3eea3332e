// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/session"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a slash command entered at the input line.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help", "/?":
		m.showHelp = !m.showHelp
		return m, nil

	case "/quit", "/exit", "/q":
		m.quitting = true
		return m, tea.Quit

	case "/clear":
		m.session.Clear()
		m.turns = nil
		m.evidence = nil
		m.streaming = ""
		m.refreshTranscript()
		m.setStatus("conversation cleared", false)
		return m, clearStatusCmd()

	case "/admin":
		if m.session.Role() == session.RoleAdmin {
			m.setStatus("already authenticated as admin", false)
			return m, clearStatusCmd()
		}
		m.enterPrompt(promptAdminKey)
		return m, nil

	case "/upload":
		if len(args) == 0 {
			m.setStatus("usage: /upload <file> [file...]", true)
			return m, clearStatusCmd()
		}
		if m.session.Role() != session.RoleAdmin {
			m.setStatus("admin access required, run /admin first", true)
			return m, clearStatusCmd()
		}
		m.setStatus("uploading "+strconv.Itoa(len(args))+" file(s)...", false)
		return m, ingestCmd(m.session, args)

	case "/topk":
		return m.handleTopK(args)

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = strings.ToLower(args[0])
		}
		var exporter export.Exporter
		switch format {
		case "markdown", "md":
			exporter = export.NewMarkdownExporter(nil)
		case "text", "txt":
			exporter = export.NewTextExporter(nil)
		default:
			m.setStatus("unknown format "+format+", use markdown or text", true)
			return m, clearStatusCmd()
		}
		return m, exportCmd(m.session, exporter, m.exportDir)

	default:
		m.setStatus("unknown command "+cmd+", try /help", true)
		return m, clearStatusCmd()
	}
}

// handleTopK shows or sets the retrieval depth.
func (m Model) handleTopK(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.setStatus("top_k is "+strconv.Itoa(m.session.TopK()), false)
		return m, clearStatusCmd()
	}

	k, err := strconv.Atoi(args[0])
	if err != nil {
		m.setStatus("usage: /topk <number>", true)
		return m, clearStatusCmd()
	}

	m.session.SetTopK(k)
	m.setStatus("top_k set to "+strconv.Itoa(m.session.TopK()), false)
	return m, clearStatusCmd()
}

// =============================================================================
// STATUS FORMATTING
// =============================================================================

// formatUploadSummary builds the status text for a clean batch.
func formatUploadSummary(files, chunks int) string {
	return "indexed " + strconv.Itoa(files) + " file(s), " +
		strconv.Itoa(chunks) + " chunk(s)"
}

// formatUploadFailures builds the status text when uploads failed.
func formatUploadFailures(failures []backend.UploadResult) string {
	var names []string
	for _, f := range failures {
		names = append(names, f.Filename)
	}
	return "failed: " + strings.Join(names, ", ")
}
