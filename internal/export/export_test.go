// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/docchat-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.AddUserTurn("What is vector storage")
	conv.AddAssistantTurn("Vector storage holds embeddings.")
	conv.AddErrorTurn("⚠ The request timed out.")
	return conv
}

func sampleEvidence() []model.Evidence {
	return []model.Evidence{
		model.NewEvidence("uses <mark>vector</mark> indexes"),
		model.NewEvidence("stores &lt;dense&gt; embeddings"),
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation(), sampleEvidence())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"# What is vector storage",
		"### You",
		"### Assistant (error)",
		"Vector storage holds embeddings.",
		"## Evidence",
		"uses **vector** indexes",
		"stores <dense> embeddings",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestTextExporter(t *testing.T) {
	out, err := NewTextExporter(nil).Export(sampleConversation(), sampleEvidence())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"You:",
		"Assistant (error):",
		"Evidence:",
		"uses vector indexes",
		"stores <dense> embeddings",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q", want)
		}
	}
	if strings.Contains(text, "<mark>") {
		t.Error("highlight markup leaked into plain text")
	}
}

func TestExport_EmptyConversation(t *testing.T) {
	conv := model.NewConversation()

	if _, err := NewMarkdownExporter(nil).Export(conv, nil); err == nil {
		t.Error("markdown: expected error for empty conversation")
	}
	if _, err := NewTextExporter(nil).Export(conv, nil); err == nil {
		t.Error("text: expected error for empty conversation")
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleConversation(), sampleEvidence(), NewTextExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	if filepath.Ext(path) != ".txt" {
		t.Errorf("path = %q, want .txt extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("exported file unreadable: %v", err)
	}
	if !strings.Contains(string(data), "Vector storage holds embeddings.") {
		t.Error("exported file missing transcript content")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is X?", "What_is_X"},
		{"", "conversation"},
		{"///", "conversation"},
		{"hello world", "hello_world"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
