// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/docchat-tui/internal/auth"
	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

// fakeQuerier returns a scripted response or error.
type fakeQuerier struct {
	mu       sync.Mutex
	calls    int
	lastTopK int
	answer   string
	results  []string
	err      error

	// block, when set, holds the query open until released.
	block chan struct{}
}

func (f *fakeQuerier) Query(ctx context.Context, text string, topK int) (*backend.QueryResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastTopK = topK
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}

	return &backend.QueryResponse{
		Answer:  f.answer,
		Results: backend.ResultList(f.results),
	}, nil
}

func (f *fakeQuerier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingUploader records ingest attempts.
type countingUploader struct {
	mu    sync.Mutex
	calls int
}

func (u *countingUploader) Ingest(ctx context.Context, file backend.File, key string) (backend.UploadResult, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	return backend.UploadResult{Filename: file.Name, Chunks: 1}, nil
}

func fastRenderer() *stream.Renderer {
	return &stream.Renderer{SliceSize: 4, Delay: time.Microsecond}
}

func newGate(t *testing.T, key string) *auth.Gate {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(auth.AdminKeyEntry+"="+key+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return auth.NewGate(auth.NewKeystore(path))
}

// =============================================================================
// QUERY LIFECYCLE TESTS
// =============================================================================

func TestSession_SubmitAppendsUserThenAssistant(t *testing.T) {
	querier := &fakeQuerier{
		answer:  "X is a thing.",
		results: []string{"about storage systems", "more context"},
	}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	if err := s.Submit(context.Background(), "What is storage"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("got %d turns, want 2", len(history))
	}
	if history[0].Role != model.RoleUser || history[0].Content != "What is storage" {
		t.Errorf("first turn = %v %q", history[0].Role, history[0].Content)
	}
	if history[1].Role != model.RoleAssistant || history[1].Content != "X is a thing." {
		t.Errorf("second turn = %v %q", history[1].Role, history[1].Content)
	}
	if history[1].IsError {
		t.Error("successful answer marked as error")
	}

	// Evidence must be the highlighted normalization of the response.
	evidence := s.Evidence()
	if len(evidence) != 2 {
		t.Fatalf("got %d evidence snippets, want 2", len(evidence))
	}
	if evidence[0].Text != "about <mark>storage</mark> systems" {
		t.Errorf("evidence[0] = %q", evidence[0].Text)
	}

	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle", s.State())
	}
}

func TestSession_FailureCommitsMarkedErrorTurn(t *testing.T) {
	// Seed an evidence panel with a successful query first.
	querier := &fakeQuerier{answer: "ok", results: []string{"snippet"}}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})
	if err := s.Submit(context.Background(), "warmup question"); err != nil {
		t.Fatal(err)
	}
	before := s.Evidence()

	querier.err = backend.ErrTimeout
	if err := s.Submit(context.Background(), "second question"); err != nil {
		t.Fatalf("Submit returned %v; failures should resolve to turns", err)
	}

	history := s.History()
	last := history[len(history)-1]
	if last.Role != model.RoleAssistant || !last.IsError {
		t.Fatalf("last turn = %v IsError=%v", last.Role, last.IsError)
	}
	if !strings.HasPrefix(last.Content, ErrorPrefix) {
		t.Errorf("error turn not marked: %q", last.Content)
	}

	// Evidence panel unchanged by the failure.
	after := s.Evidence()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("evidence changed across a failed query: %v -> %v", before, after)
	}

	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle for retry", s.State())
	}
}

func TestSession_RejectsConcurrentSubmit(t *testing.T) {
	querier := &fakeQuerier{answer: "ok", block: make(chan struct{})}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	done := make(chan error, 1)
	go func() {
		done <- s.Submit(context.Background(), "first")
	}()

	// Wait for the first query to be in flight.
	deadline := time.After(5 * time.Second)
	for s.State() != StateAwaitingResponse {
		select {
		case <-deadline:
			t.Fatal("first query never started")
		case <-time.After(time.Millisecond):
		}
	}

	if err := s.Submit(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}

	close(querier.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	// Only the first query ran, and only its turns exist.
	if querier.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", querier.callCount())
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("history has %d turns, want 2", got)
	}
}

func TestSession_RejectsEmptyInput(t *testing.T) {
	s := New(Config{Querier: &fakeQuerier{}, Renderer: fastRenderer()})

	if err := s.Submit(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("got %v, want ErrEmptyQuery", err)
	}
	if len(s.History()) != 0 {
		t.Error("blank input appended a turn")
	}
}

func TestSession_StreamChunksEndWithFullAnswer(t *testing.T) {
	querier := &fakeQuerier{answer: "abcdefghij"}
	s := New(Config{Querier: querier, Renderer: &stream.Renderer{SliceSize: 3, Delay: time.Microsecond}})

	var mu sync.Mutex
	var chunks []string
	s.SetStreamChunkCallback(func(prefix string) {
		mu.Lock()
		chunks = append(chunks, prefix)
		mu.Unlock()
	})

	if err := s.Submit(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}

	want := []string{"abc", "abcdef", "abcdefghi", "abcdefghij"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}

	// The stored turn carries the full text, not a prefix.
	history := s.History()
	if history[1].Content != "abcdefghij" {
		t.Errorf("stored answer = %q", history[1].Content)
	}
}

func TestSession_CallbackOrder(t *testing.T) {
	querier := &fakeQuerier{answer: "ok", results: []string{"snippet"}}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	var mu sync.Mutex
	var events []string
	s.SetStateChangedCallback(func(st State) {
		mu.Lock()
		events = append(events, "state:"+st.String())
		mu.Unlock()
	})
	s.SetTurnAppendedCallback(func(turn *model.Turn) {
		mu.Lock()
		events = append(events, "turn:"+turn.Role.String())
		mu.Unlock()
	})
	s.SetEvidenceUpdatedCallback(func([]model.Evidence) {
		mu.Lock()
		events = append(events, "evidence")
		mu.Unlock()
	})

	if err := s.Submit(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"state:awaiting_response",
		"turn:user",
		"turn:assistant",
		"evidence",
		"state:idle",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

// =============================================================================
// AUTH AND INGEST TESTS
// =============================================================================

func TestSession_AuthenticateElevatesRole(t *testing.T) {
	s := New(Config{Querier: &fakeQuerier{}, Gate: newGate(t, "secret")})

	if s.Role() != RoleUser {
		t.Fatalf("initial role = %v", s.Role())
	}

	if err := s.Authenticate("wrong"); !errors.Is(err, auth.ErrInvalidKey) {
		t.Errorf("got %v, want ErrInvalidKey", err)
	}
	if s.Role() != RoleUser {
		t.Error("failed auth changed the role")
	}

	if err := s.Authenticate("secret"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if s.Role() != RoleAdmin {
		t.Errorf("role = %v, want admin", s.Role())
	}
}

func TestSession_IngestRequiresAdmin(t *testing.T) {
	uploader := &countingUploader{}
	s := New(Config{Querier: &fakeQuerier{}, Uploader: uploader, Gate: newGate(t, "secret")})

	files := []backend.File{{Name: "doc.txt", Data: []byte("body")}}

	// Rejection happens before any upload attempt.
	if _, err := s.Ingest(context.Background(), files); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("got %v, want ErrNotAdmin", err)
	}
	if uploader.calls != 0 {
		t.Fatalf("uploader called %d times before auth", uploader.calls)
	}

	if err := s.Authenticate("secret"); err != nil {
		t.Fatal(err)
	}

	result, err := s.Ingest(context.Background(), files)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(result.Results) != 1 || result.Results[0].Failed() {
		t.Errorf("result = %+v", result.Results)
	}
	if uploader.calls != 1 {
		t.Errorf("uploader called %d times, want 1", uploader.calls)
	}
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestSession_Clear(t *testing.T) {
	querier := &fakeQuerier{answer: "ok", results: []string{"snippet"}}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	if err := s.Submit(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}

	s.Clear()

	if len(s.History()) != 0 {
		t.Error("history survived Clear")
	}
	if len(s.Evidence()) != 0 {
		t.Error("evidence survived Clear")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v", s.State())
	}
}

func TestSession_TopKClamped(t *testing.T) {
	s := New(Config{Querier: &fakeQuerier{}})

	if got := s.TopK(); got != 3 {
		t.Errorf("default TopK = %d, want 3", got)
	}

	s.SetTopK(0)
	if got := s.TopK(); got != 1 {
		t.Errorf("TopK after SetTopK(0) = %d, want 1", got)
	}

	s.SetTopK(7)
	if got := s.TopK(); got != 7 {
		t.Errorf("TopK = %d", got)
	}

	s.SetTopK(50)
	if got := s.TopK(); got != MaxTopK {
		t.Errorf("TopK after SetTopK(50) = %d, want %d", got, MaxTopK)
	}

	wide := New(Config{Querier: &fakeQuerier{}, TopK: 50})
	if got := wide.TopK(); got != MaxTopK {
		t.Errorf("initial TopK = %d, want %d", got, MaxTopK)
	}
}

func TestSession_SnapshotIsIsolatedCopy(t *testing.T) {
	s := New(Config{Querier: &fakeQuerier{answer: "a"}, Renderer: fastRenderer()})

	if err := s.Submit(context.Background(), "first question"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := s.Snapshot()
	before := snap.Len()
	if snap.Title == "" {
		t.Error("snapshot lost the conversation title")
	}

	if err := s.Submit(context.Background(), "second question"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if snap.Len() != before {
		t.Errorf("snapshot grew from %d to %d turns after a later submit", before, snap.Len())
	}
	if got := s.Snapshot().Len(); got != before+2 {
		t.Errorf("fresh snapshot has %d turns, want %d", got, before+2)
	}
}

// Reading a snapshot while a submit resolves on another goroutine
// must only ever observe locked copies, never the live transcript.
func TestSession_SnapshotSafeDuringSubmit(t *testing.T) {
	querier := &fakeQuerier{answer: "a", block: make(chan struct{})}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Submit(context.Background(), "in flight")
	}()

	close(querier.block)
	for {
		snap := s.Snapshot()
		_ = snap.Len()
		_ = snap.Title

		select {
		case <-done:
			if got := s.Snapshot().Len(); got != 2 {
				t.Errorf("final snapshot has %d turns, want 2", got)
			}
			return
		default:
		}
	}
}

func TestSession_QueryNeverExceedsMaxTopK(t *testing.T) {
	querier := &fakeQuerier{answer: "a"}
	s := New(Config{Querier: querier, Renderer: fastRenderer()})

	s.SetTopK(50)
	if err := s.Submit(context.Background(), "question"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	querier.mu.Lock()
	got := querier.lastTopK
	querier.mu.Unlock()
	if got != MaxTopK {
		t.Errorf("backend saw top_k %d, want %d", got, MaxTopK)
	}
}

func TestState_String(t *testing.T) {
	if StateIdle.String() != "idle" || StateAwaitingResponse.String() != "awaiting_response" {
		t.Error("state names changed")
	}
}

func TestRole_String(t *testing.T) {
	if RoleUser.String() != "user" || RoleAdmin.String() != "admin" {
		t.Error("role names changed")
	}
}
