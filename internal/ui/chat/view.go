// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	if m.showHelp {
		sb.WriteString(m.renderHelp())
	} else {
		sb.WriteString(m.renderBody())
	}
	sb.WriteString("\n")

	sb.WriteString(m.renderInput())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

// renderHeader renders the title bar.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("docchat")
	brand := m.theme.HeaderBrand.Render("document chat")
	return m.theme.Header.Width(m.width).Render(title + " " + brand)
}

// renderBody renders the transcript, with the evidence panel beside
// it when the terminal is wide enough.
func (m Model) renderBody() string {
	transcript := m.viewport.View()

	if m.showEvidence && m.theme.GetLayoutMode() == styles.LayoutWide {
		panel := m.evPanel.Render(m.evidence)
		return lipgloss.JoinHorizontal(lipgloss.Top, transcript, panel)
	}
	return transcript
}

// renderInput renders the input line.
func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// renderStatusBar renders the bottom status bar with role, top_k,
// and any transient status message.
func (m Model) renderStatusBar() string {
	var role string
	if m.session != nil && m.session.Role() == session.RoleAdmin {
		role = m.theme.RoleAdmin.Render(" admin ")
	} else {
		role = m.theme.RoleUser.Render(" user ")
	}

	topK := ""
	if m.session != nil {
		topK = m.theme.TopKBadge.Render(" k=" + strconv.Itoa(m.session.TopK()) + " ")
	}

	var middle string
	switch {
	case m.status != "":
		if m.statusError {
			middle = m.theme.ErrorStyle.Render(m.status)
		} else {
			middle = m.theme.InfoStyle.Render(m.status)
		}
	case m.thinking:
		middle = m.spinner.View() + m.theme.ThinkingText.Render(" thinking...")
	default:
		middle = m.theme.ShortcutKey.Render("/help") +
			m.theme.ShortcutDesc.Render(" commands ") +
			m.theme.ShortcutKey.Render("ctrl+c") +
			m.theme.ShortcutDesc.Render(" quit")
	}

	return m.theme.StatusBar.Width(m.width).Render(role + topK + " " + middle)
}

// renderHelp renders the command reference overlay.
func (m Model) renderHelp() string {
	rows := []struct {
		cmd  string
		desc string
	}{
		{"/help", "toggle this help"},
		{"/admin", "authenticate for admin operations"},
		{"/upload <file>...", "index documents (admin only)"},
		{"/topk [n]", "show or set retrieved snippet count"},
		{"/export [markdown|text]", "export the conversation"},
		{"/clear", "clear the conversation"},
		{"/quit", "exit"},
	}

	var sb strings.Builder
	sb.WriteString(m.theme.EvidenceHeader.Render("Commands"))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(m.theme.ShortcutKey.Render(padCommand(r.cmd)))
		sb.WriteString(m.theme.ShortcutDesc.Render(r.desc))
		sb.WriteString("\n")
	}

	return m.theme.Container.Width(m.width).Render(sb.String())
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshTranscript rebuilds the viewport content from the mirrored
// conversation state.
func (m *Model) refreshTranscript() {
	width := m.viewport.Width
	if width < 20 {
		width = 20
	}

	var sb strings.Builder
	for _, turn := range m.turns {
		sb.WriteString(m.renderTurn(turn, width))
		sb.WriteString("\n")
	}

	if m.streaming != "" {
		sb.WriteString(m.theme.RoleLabel.Render(model.RoleAssistant.DisplayName()))
		sb.WriteString("\n")
		sb.WriteString(m.theme.AssistantBubble.Width(width - 2).Render(m.streaming))
		sb.WriteString("\n")
	} else if m.thinking {
		sb.WriteString(m.spinner.View())
		sb.WriteString(m.theme.ThinkingText.Render(" thinking..."))
		sb.WriteString("\n")
	}

	m.viewport.SetContent(sb.String())
}

// renderTurn renders a single conversation turn as a labeled bubble.
// Compact mode drops the per-turn timestamp to save vertical space.
func (m Model) renderTurn(turn *model.Turn, width int) string {
	label := m.theme.RoleLabel.Render(turn.Role.DisplayName())
	if !m.compactMode {
		label += " " + m.theme.Timestamp.Render(turn.Timestamp.Format("15:04"))
	}

	content := turn.Content
	bubble := m.theme.AssistantBubble
	switch {
	case turn.IsError:
		bubble = m.theme.ErrorBubble
	case turn.Role == model.RoleUser:
		bubble = m.theme.UserBubble
	default:
		content = components.ParseCodeBlocks(content, width-2)
	}

	return label + "\n" + bubble.Width(width-2).Render(content) + "\n"
}

// =============================================================================
// HELPERS
// =============================================================================

// padCommand pads a command name to a fixed column for the help table.
func padCommand(cmd string) string {
	const col = 26
	if util.StringWidth(cmd) >= col {
		return cmd + " "
	}
	return util.PadRight(cmd, col)
}
