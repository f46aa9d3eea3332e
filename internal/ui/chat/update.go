// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/auth"
	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.resize()
		m.refreshTranscript()
		return m, nil

	case SessionStateMsg:
		m.thinking = msg.State == session.StateAwaitingResponse
		if !m.thinking {
			m.streaming = ""
		}
		m.refreshTranscript()
		return m, nil

	case TurnAppendedMsg:
		m.turns = append(m.turns, msg.Turn)
		if msg.Turn.Role == model.RoleAssistant || msg.Turn.IsError {
			m.streaming = ""
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case StreamChunkMsg:
		m.streaming = msg.Partial
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case EvidenceUpdatedMsg:
		m.evidence = msg.Evidence
		return m, nil

	case QueryDoneMsg:
		if errors.Is(msg.Err, session.ErrBusy) {
			m.setStatus("still waiting for the previous answer", true)
			return m, clearStatusCmd()
		}
		return m, nil

	case AuthResultMsg:
		return m.handleAuthResult(msg)

	case IngestDoneMsg:
		return m.handleIngestResult(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setStatus("export failed: "+msg.Err.Error(), true)
		} else {
			m.setStatus("exported to "+msg.Path, false)
		}
		return m, clearStatusCmd()

	case StatusMsg:
		m.setStatus(msg.Text, msg.IsError)
		return m, clearStatusCmd()

	case ClearStatusMsg:
		m.status = ""
		m.statusError = false
		return m, nil

	case KeystoreReloadedMsg:
		m.setStatus("admin credentials reloaded", false)
		return m, clearStatusCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.prompt != promptQuery {
			m.exitPrompt()
			return m, nil
		}
		return m, nil

	case tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return m, nil

	case tea.KeyEnter:
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit processes the Enter key for the current prompt mode.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.prompt {
	case promptAdminKey:
		if value == "" {
			return m, nil
		}
		m.pendingKey = value
		m.input.Reset()
		return m, authCmd(m.session, value)

	case promptTOTPCode:
		if value == "" {
			return m, nil
		}
		key := m.pendingKey
		m.input.Reset()
		return m, authCodeCmd(m.session, key, value)
	}

	if value == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(value, "/") {
		return m.handleCommand(value)
	}

	return m, submitCmd(m.session, value)
}

// handleAuthResult processes the outcome of an authentication attempt.
func (m Model) handleAuthResult(msg AuthResultMsg) (tea.Model, tea.Cmd) {
	if msg.NeedsCode {
		m.enterPrompt(promptTOTPCode)
		m.setStatus("key accepted, enter your 6-digit code", false)
		return m, nil
	}

	m.exitPrompt()
	switch {
	case msg.Err == nil:
		m.setStatus("admin access granted", false)
	case errors.Is(msg.Err, auth.ErrNotConfigured):
		m.setStatus("no admin key configured on this machine", true)
	case errors.Is(msg.Err, auth.ErrInvalidCode):
		m.setStatus("invalid code", true)
	default:
		m.setStatus("invalid admin key", true)
	}
	return m, clearStatusCmd()
}

// handleIngestResult summarizes an upload batch on the status line.
func (m Model) handleIngestResult(msg IngestDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, session.ErrNotAdmin) {
			m.setStatus("admin access required, run /admin first", true)
		} else {
			m.setStatus("upload failed: "+msg.Err.Error(), true)
		}
		return m, clearStatusCmd()
	}

	failures := msg.Result.Failures()
	if len(failures) == 0 {
		m.setStatus(formatUploadSummary(len(msg.Result.Results), msg.Result.TotalChunks()), false)
	} else {
		m.setStatus(formatUploadFailures(failures), true)
	}
	return m, clearStatusCmd()
}

// resize recomputes component dimensions after a window change.
func (m *Model) resize() {
	transcriptWidth := m.width
	if m.showEvidence && m.theme.GetLayoutMode() == styles.LayoutWide {
		panelWidth := m.width / 3
		if panelWidth > 60 {
			panelWidth = 60
		}
		m.evPanel.SetWidth(panelWidth)
		transcriptWidth = m.width - panelWidth
	}

	// Header, input line, and status bar take four rows.
	height := m.height - 4
	if height < 5 {
		height = 5
	}
	m.viewport.Width = transcriptWidth
	m.viewport.Height = height
	m.input.Width = m.width - 4
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// submitCmd submits a query on a background goroutine. Turn and
// evidence updates arrive through the Bridge; the returned message
// only carries submission errors.
func submitCmd(s *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		err := s.Submit(context.Background(), text)
		return QueryDoneMsg{Err: err}
	}
}

// authCmd attempts key-only authentication.
func authCmd(s *session.Session, key string) tea.Cmd {
	return func() tea.Msg {
		err := s.Authenticate(key)
		if errors.Is(err, auth.ErrInvalidCode) {
			return AuthResultMsg{NeedsCode: true}
		}
		return AuthResultMsg{Err: err}
	}
}

// authCodeCmd completes authentication with a second factor code.
func authCodeCmd(s *session.Session, key, code string) tea.Cmd {
	return func() tea.Msg {
		return AuthResultMsg{Err: s.AuthenticateWithCode(key, code)}
	}
}

// ingestCmd reads the named files and uploads them as a batch.
func ingestCmd(s *session.Session, paths []string) tea.Cmd {
	return func() tea.Msg {
		var files []backend.File
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return IngestDoneMsg{Err: err}
			}
			files = append(files, backend.File{
				Name: filepath.Base(p),
				Data: data,
			})
		}

		result, err := s.Ingest(context.Background(), files)
		return IngestDoneMsg{Result: result, Err: err}
	}
}

// exportCmd writes the conversation to a file in the export directory.
func exportCmd(s *session.Session, exporter export.Exporter, dir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		if dir != "" {
			opts.OutputDir = dir
		}
		path, err := export.ExportToFile(s.Snapshot(), s.Evidence(), exporter, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// clearStatusCmd clears the status line after a short delay.
func clearStatusCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
