// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// PLAIN TEXT EXPORTER
// =============================================================================

// TextExporter exports conversations to plain text.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a conversation to plain text.
func (e *TextExporter) Export(conv *model.Conversation, evidence []model.Evidence) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if conv.Len() == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	var sb strings.Builder

	for _, turn := range conv.History() {
		label := turn.Role.DisplayName()
		if turn.IsError {
			label += " (error)"
		}

		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("[%s] %s:\n", formatShortTimestamp(turn.Timestamp), label))
		} else {
			sb.WriteString(label + ":\n")
		}
		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}

	if e.options.IncludeEvidence && len(evidence) > 0 {
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		sb.WriteString("Evidence:\n")
		for i, ev := range evidence {
			plain := plainText(ev.Text)
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, plain))
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// plainText removes highlight markup entirely.
func plainText(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	s = strings.ReplaceAll(s, "</mark>", "")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}
