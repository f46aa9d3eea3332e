// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the docchat TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// EVIDENCE PANEL
// =============================================================================

// EvidencePanel renders the current evidence snippets with query-term
// highlighting. Snippets arrive pre-marked by the highlighter; the
// panel maps the markup onto terminal styles.
type EvidencePanel struct {
	theme *styles.Theme
	width int
}

// NewEvidencePanel creates an evidence panel bound to a theme.
func NewEvidencePanel(theme *styles.Theme) *EvidencePanel {
	return &EvidencePanel{theme: theme, width: 40}
}

// SetWidth sets the panel's render width.
func (p *EvidencePanel) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	p.width = width
}

// Render renders the panel. With no evidence it shows a hint instead
// of an empty box.
func (p *EvidencePanel) Render(evidence []model.Evidence) string {
	header := p.theme.EvidenceHeader.Render("Evidence")

	if len(evidence) == 0 {
		body := p.theme.EvidenceItem.Render("No evidence yet. Ask a question.")
		return p.theme.EvidencePanel.Width(p.width).Render(header + "\n\n" + body)
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	innerWidth := p.width - 4
	for i, ev := range evidence {
		sb.WriteString("\n")
		index := p.theme.EvidenceIndex.Render(formatIndex(i + 1))
		text := p.styleSnippet(ev.Text)
		item := lipgloss.NewStyle().Width(innerWidth).Render(index + " " + text)
		sb.WriteString(item)
		sb.WriteString("\n")
	}

	return p.theme.EvidencePanel.Width(p.width).Render(sb.String())
}

// styleSnippet converts highlight markup into terminal styling and
// decodes the escaped angle brackets.
func (p *EvidencePanel) styleSnippet(s string) string {
	var sb strings.Builder

	for {
		start := strings.Index(s, "<mark>")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "</mark>")
		if end < 0 {
			break
		}
		end += start

		sb.WriteString(decodeEntities(s[:start]))
		sb.WriteString(p.theme.EvidenceMark.Render(decodeEntities(s[start+len("<mark>") : end])))
		s = s[end+len("</mark>"):]
	}
	sb.WriteString(decodeEntities(s))

	return sb.String()
}

// decodeEntities reverses the highlighter's escaping for display.
func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}

// formatIndex renders a snippet ordinal like "[1]".
func formatIndex(n int) string {
	return "[" + strconv.Itoa(n) + "]"
}
