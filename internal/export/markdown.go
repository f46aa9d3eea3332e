// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation, evidence []model.Evidence) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if conv.Len() == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("- **Turns**: %d\n", conv.Len()))
	sb.WriteString(fmt.Sprintf("- **Exported**: %s\n\n", formatTimestamp(time.Now())))
	sb.WriteString("---\n\n")

	for _, turn := range conv.History() {
		label := turn.Role.DisplayName()
		if turn.IsError {
			label += " (error)"
		}

		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(turn.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}

	if e.options.IncludeEvidence && len(evidence) > 0 {
		sb.WriteString("---\n\n")
		sb.WriteString("## Evidence\n\n")
		for i, ev := range evidence {
			sb.WriteString(fmt.Sprintf("%d. %s", i+1, stripMarkers(ev.Text)))
			if ev.Source != "" && ev.Source != "unknown" {
				sb.WriteString(fmt.Sprintf(" _(%s)_", ev.Source))
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// stripMarkers converts highlighted evidence back to plain text for
// formats that do not render the mark tags.
func stripMarkers(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "**")
	s = strings.ReplaceAll(s, "</mark>", "**")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}
