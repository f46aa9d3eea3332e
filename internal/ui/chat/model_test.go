// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/stream"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/util"
)

type fakeQuerier struct {
	answer  string
	results []string
}

func (f *fakeQuerier) Query(ctx context.Context, text string, topK int) (*backend.QueryResponse, error) {
	return &backend.QueryResponse{
		Answer:  f.answer,
		Results: backend.ResultList(f.results),
	}, nil
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	sess := session.New(session.Config{
		Querier:  &fakeQuerier{answer: "an answer"},
		Renderer: &stream.Renderer{SliceSize: 1000, Delay: time.Microsecond},
	})
	return New(Options{
		Session:      sess,
		Theme:        styles.NewThemeWithBackground(true),
		ShowEvidence: true,
	})
}

func resize(t *testing.T, m Model, w, h int) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return updated.(Model)
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestModel_InitialView(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	view := m.View()
	if !strings.Contains(view, "docchat") {
		t.Errorf("header missing from view:\n%s", view)
	}
	if !strings.Contains(view, "user") {
		t.Errorf("role badge missing from view:\n%s", view)
	}
	if !strings.Contains(view, "No evidence yet") {
		t.Errorf("evidence panel missing in wide layout:\n%s", view)
	}
}

func TestModel_NarrowLayoutHidesEvidence(t *testing.T) {
	m := resize(t, newTestModel(t), 60, 30)

	if strings.Contains(m.View(), "No evidence yet") {
		t.Error("evidence panel rendered in narrow layout")
	}
}

func TestModel_ShowEvidenceOffHidesPanel(t *testing.T) {
	sess := session.New(session.Config{
		Querier:  &fakeQuerier{answer: "an answer"},
		Renderer: &stream.Renderer{SliceSize: 1000, Delay: time.Microsecond},
	})
	m := New(Options{
		Session:      sess,
		Theme:        styles.NewThemeWithBackground(true),
		ShowEvidence: false,
	})
	m = resize(t, m, 100, 30)

	if strings.Contains(m.View(), "No evidence yet") {
		t.Error("evidence panel rendered with show_evidence disabled")
	}
	if m.viewport.Width != 100 {
		t.Errorf("transcript width = %d, want full width with panel disabled", m.viewport.Width)
	}
}

func TestModel_CompactModeDropsTimestamps(t *testing.T) {
	sess := session.New(session.Config{
		Querier:  &fakeQuerier{answer: "an answer"},
		Renderer: &stream.Renderer{SliceSize: 1000, Delay: time.Microsecond},
	})
	m := New(Options{
		Session:      sess,
		Theme:        styles.NewThemeWithBackground(true),
		ShowEvidence: true,
		CompactMode:  true,
	})
	m = resize(t, m, 100, 30)

	turn := model.NewUserTurn("hello there")
	turn.Timestamp = time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	updated, _ := m.Update(TurnAppendedMsg{Turn: turn})
	m = updated.(Model)

	transcript := m.viewport.View()
	if !strings.Contains(transcript, "hello there") {
		t.Fatal("turn content missing from transcript")
	}
	if strings.Contains(transcript, "23:59") {
		t.Error("compact mode still renders timestamps")
	}
}

func TestModel_SubmitReturnsQueryCmd(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "what is indexing")

	m, cmd := pressEnter(m)
	if cmd == nil {
		t.Fatal("enter with input produced no command")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared after submit, got %q", m.input.Value())
	}

	// Running the command drives the session to completion.
	msg := cmd()
	done, ok := msg.(QueryDoneMsg)
	if !ok {
		t.Fatalf("expected QueryDoneMsg, got %T", msg)
	}
	if done.Err != nil {
		t.Fatalf("submit failed: %v", done.Err)
	}
	if got := len(m.Session().History()); got != 2 {
		t.Errorf("history has %d turns, want 2", got)
	}
}

func TestModel_EmptyEnterIsNoop(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	_, cmd := pressEnter(m)
	if cmd != nil {
		t.Error("empty enter produced a command")
	}
}

func TestModel_TurnAppendedRendersTranscript(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	turn := model.NewUserTurn("hello there")
	updated, _ := m.Update(TurnAppendedMsg{Turn: turn})
	m = updated.(Model)

	if !strings.Contains(m.viewport.View(), "hello there") {
		t.Error("appended turn not rendered in transcript")
	}
}

func TestModel_StreamChunkShowsPartial(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	updated, _ := m.Update(StreamChunkMsg{Partial: "partial ans"})
	m = updated.(Model)

	if !strings.Contains(m.viewport.View(), "partial ans") {
		t.Error("stream partial not rendered in transcript")
	}

	// The committed assistant turn clears the partial.
	updated, _ = m.Update(TurnAppendedMsg{Turn: model.NewAssistantTurn("partial answer")})
	m = updated.(Model)
	if m.streaming != "" {
		t.Error("streaming partial not cleared after assistant turn")
	}
}

func TestModel_EvidenceUpdate(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	updated, _ := m.Update(EvidenceUpdatedMsg{Evidence: []model.Evidence{
		model.NewEvidence("snippet about <mark>indexing</mark>"),
	}})
	m = updated.(Model)

	if !strings.Contains(m.View(), "indexing") {
		t.Error("evidence snippet missing from wide view")
	}
}

func TestModel_HelpCommand(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "/help")
	m, _ = pressEnter(m)

	if !m.showHelp {
		t.Fatal("help overlay not shown")
	}
	if !strings.Contains(m.View(), "/upload") {
		t.Error("help overlay missing command listing")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.showHelp {
		t.Error("escape did not dismiss help")
	}
}

func TestModel_UnknownCommand(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "/bogus")
	m, _ = pressEnter(m)

	if !strings.Contains(m.status, "unknown command") {
		t.Errorf("status = %q, want unknown command notice", m.status)
	}
}

func TestModel_TopKCommand(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "/topk 7")
	m, _ = pressEnter(m)

	if got := m.Session().TopK(); got != 7 {
		t.Errorf("TopK = %d, want 7", got)
	}

	// Out-of-range requests come back clamped.
	m = typeText(m, "/topk 50")
	m, _ = pressEnter(m)
	if got := m.Session().TopK(); got != session.MaxTopK {
		t.Errorf("TopK = %d, want %d after oversized request", got, session.MaxTopK)
	}
}

func TestModel_UploadRequiresAdmin(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "/upload notes.txt")
	m, cmd := pressEnter(m)

	if !strings.Contains(m.status, "admin access required") {
		t.Errorf("status = %q, want admin requirement notice", m.status)
	}
	if cmd == nil {
		t.Fatal("expected a status clear command")
	}
}

func TestModel_AdminPromptMasksInput(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	m = typeText(m, "/admin")
	m, _ = pressEnter(m)

	if m.prompt != promptAdminKey {
		t.Fatal("admin command did not enter key prompt")
	}
	if m.input.EchoMode != textinput.EchoPassword {
		t.Error("admin key prompt is not masked")
	}

	// Escape abandons the prompt.
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.prompt != promptQuery {
		t.Error("escape did not exit the credential prompt")
	}
}

func TestModel_BusyStatusOnErrBusy(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)

	updated, _ := m.Update(QueryDoneMsg{Err: session.ErrBusy})
	m = updated.(Model)

	if m.status == "" || !m.statusError {
		t.Errorf("busy rejection not surfaced, status = %q", m.status)
	}
}

func TestPadCommand_PadsByDisplayWidth(t *testing.T) {
	if got := util.StringWidth(padCommand("/help")); got != 26 {
		t.Errorf("padded width = %d, want 26", got)
	}
	// Double-width runes occupy two columns each; padding must account
	// for that rather than counting runes or bytes.
	if got := util.StringWidth(padCommand("/导出")); got != 26 {
		t.Errorf("padded width with wide runes = %d, want 26", got)
	}
	if got := padCommand(strings.Repeat("x", 30)); !strings.HasSuffix(got, " ") {
		t.Errorf("overlong command lost its separator: %q", got)
	}
}

func TestModel_ClearCommand(t *testing.T) {
	m := resize(t, newTestModel(t), 100, 30)
	updated, _ := m.Update(TurnAppendedMsg{Turn: model.NewUserTurn("hi")})
	m = updated.(Model)

	m = typeText(m, "/clear")
	m, _ = pressEnter(m)

	if len(m.turns) != 0 {
		t.Error("clear did not empty the mirrored transcript")
	}
	if got := len(m.Session().History()); got != 0 {
		t.Errorf("session history has %d turns after clear", got)
	}
}
