// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/docchat-tui/internal/auth"
	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/highlight"
	"github.com/jeranaias/docchat-tui/internal/ingest"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

// =============================================================================
// STATES AND ROLES
// =============================================================================

// State is the session's turn-lifecycle state.
type State int

const (
	// StateIdle means the session will accept a new query.
	StateIdle State = iota

	// StateAwaitingResponse means a query is in flight. New
	// submissions are rejected until it resolves.
	StateAwaitingResponse
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// Role gates privileged operations.
type Role int

const (
	// RoleUser is the default role. It can query but not ingest.
	RoleUser Role = iota

	// RoleAdmin is granted by a successful authentication and
	// additionally allows document ingestion.
	RoleAdmin
)

// String returns the role name.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when a query is submitted while another is
	// still in flight. One query per session at a time.
	ErrBusy = errors.New("a query is already in flight")

	// ErrEmptyQuery is returned for blank input.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNotAdmin is returned when ingestion is attempted without a
	// prior successful authentication. No network call is made.
	ErrNotAdmin = errors.New("admin authentication required")
)

// ErrorPrefix marks error turns so they are never mistaken for a
// normal assistant answer.
const ErrorPrefix = "⚠ "

// Retrieval width bounds. The backend accepts any positive top_k;
// these are the bounds this client exposes.
const (
	MinTopK     = 1
	MaxTopK     = 10
	DefaultTopK = 3
)

// clampTopK forces a retrieval width into [MinTopK, MaxTopK].
func clampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// =============================================================================
// SESSION
// =============================================================================

// Querier is the backend query operation the session drives.
// *backend.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, text string, topK int) (*backend.QueryResponse, error)
}

// Session sequences turns through the backend and owns all
// conversation state. All mutations happen inside Session methods.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time
	state     State
	role      Role
	adminKey  string

	conv     *model.Conversation
	evidence []model.Evidence
	terms    []string
	topK     int

	querier  Querier
	uploader ingest.Uploader
	gate     *auth.Gate
	renderer *stream.Renderer

	// Callbacks, invoked outside the lock.
	onStateChanged    func(State)
	onTurnAppended    func(*model.Turn)
	onEvidenceUpdated func([]model.Evidence)
	onStreamChunk     func(string)
}

// Config holds the session's collaborators.
type Config struct {
	// Querier performs backend queries. Required.
	Querier Querier

	// Uploader performs document ingestion. Optional; without it
	// Ingest fails even for admins.
	Uploader ingest.Uploader

	// Gate validates admin credentials. Optional; without it
	// authentication always fails.
	Gate *auth.Gate

	// Renderer streams answers. Defaults to stream.New().
	Renderer *stream.Renderer

	// TopK is the initial retrieval width (default 3, clamped to
	// [MinTopK, MaxTopK]).
	TopK int
}

// New creates a session in the Idle state with an empty history and
// the user role.
func New(cfg Config) *Session {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = stream.New()
	}
	topK := cfg.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	topK = clampTopK(topK)

	return &Session{
		id:        generateSessionID(),
		startTime: time.Now(),
		state:     StateIdle,
		role:      RoleUser,
		conv:      model.NewConversation(),
		topK:      topK,
		querier:   cfg.Querier,
		uploader:  cfg.Uploader,
		gate:      cfg.Gate,
		renderer:  renderer,
	}
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetStateChangedCallback registers a function called on each state
// transition.
func (s *Session) SetStateChangedCallback(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChanged = fn
}

// SetTurnAppendedCallback registers a function called for each turn
// committed to the history.
func (s *Session) SetTurnAppendedCallback(fn func(*model.Turn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTurnAppended = fn
}

// SetEvidenceUpdatedCallback registers a function called when the
// evidence panel is replaced.
func (s *Session) SetEvidenceUpdatedCallback(fn func([]model.Evidence)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvidenceUpdated = fn
}

// SetStreamChunkCallback registers a function called with each
// progressively longer answer prefix while streaming.
func (s *Session) SetStreamChunkCallback(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStreamChunk = fn
}

// =============================================================================
// QUERY LIFECYCLE
// =============================================================================

// Submit runs one full turn: append the user turn, query the backend,
// highlight evidence, stream the answer, commit the assistant turn.
//
// Submit blocks until the turn resolves. Backend failures are not
// returned as errors; they are committed as marked error turns and
// the session returns to Idle so the user can retry. The returned
// error is non-nil only when nothing was submitted at all (busy
// session or empty input).
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuery
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateAwaitingResponse

	userTurn := s.conv.AddUserTurn(text)
	s.terms = strings.Fields(text)

	topK := s.topK
	terms := s.terms
	querier := s.querier
	renderer := s.renderer
	onState := s.onStateChanged
	onTurn := s.onTurnAppended
	s.mu.Unlock()

	if onState != nil {
		onState(StateAwaitingResponse)
	}
	if onTurn != nil {
		onTurn(userTurn)
	}

	resp, err := querier.Query(ctx, text, topK)
	if err != nil {
		s.commitFailure(err)
		return nil
	}

	s.commitSuccess(ctx, renderer, resp, terms)
	return nil
}

// commitSuccess highlights evidence, streams the answer to
// completion, then appends the assistant turn. Render-then-commit:
// the turn exists only once the stream has finished.
func (s *Session) commitSuccess(ctx context.Context, renderer *stream.Renderer, resp *backend.QueryResponse, terms []string) {
	evidence := make([]model.Evidence, 0, len(resp.Evidence()))
	for _, snippet := range resp.Evidence() {
		evidence = append(evidence, model.NewEvidence(highlight.Highlight(snippet, terms)))
	}

	s.mu.Lock()
	onChunk := s.onStreamChunk
	s.mu.Unlock()

	for prefix := range renderer.Stream(ctx, resp.Answer) {
		if onChunk != nil {
			onChunk(prefix)
		}
	}

	s.mu.Lock()
	turn := s.conv.AddAssistantTurn(resp.Answer)
	s.evidence = evidence
	s.state = StateIdle
	onTurn := s.onTurnAppended
	onEvidence := s.onEvidenceUpdated
	onState := s.onStateChanged
	s.mu.Unlock()

	if onTurn != nil {
		onTurn(turn)
	}
	if onEvidence != nil {
		onEvidence(evidence)
	}
	if onState != nil {
		onState(StateIdle)
	}
}

// commitFailure appends a marked error turn. The evidence panel keeps
// its previous contents.
func (s *Session) commitFailure(err error) {
	s.mu.Lock()
	turn := s.conv.AddErrorTurn(ErrorPrefix + failureMessage(err))
	s.state = StateIdle
	onTurn := s.onTurnAppended
	onState := s.onStateChanged
	s.mu.Unlock()

	if onTurn != nil {
		onTurn(turn)
	}
	if onState != nil {
		onState(StateIdle)
	}
}

// failureMessage renders a backend failure for the transcript.
func failureMessage(err error) string {
	switch {
	case backend.IsTimeout(err):
		return "The request timed out. The backend may be busy; try again."
	case backend.IsBackendError(err):
		return "The backend returned an unusable response: " + err.Error()
	case backend.IsNetworkError(err):
		return "Could not reach the backend: " + err.Error()
	default:
		return err.Error()
	}
}

// =============================================================================
// AUTHENTICATION AND INGESTION
// =============================================================================

// Authenticate checks the key against the gate and, on success,
// elevates the session role to admin. On failure the role is
// unchanged.
func (s *Session) Authenticate(key string) error {
	return s.authenticate(key, "", false)
}

// AuthenticateWithCode is Authenticate plus a one-time code for
// keystores that configure a TOTP second factor.
func (s *Session) AuthenticateWithCode(key, code string) error {
	return s.authenticate(key, code, true)
}

func (s *Session) authenticate(key, code string, withCode bool) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()

	if gate == nil {
		return auth.ErrNotConfigured
	}

	var err error
	if withCode {
		err = gate.AuthenticateWithCode(key, code)
	} else {
		err = gate.Authenticate(key)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.role = RoleAdmin
	s.adminKey = key
	s.mu.Unlock()
	return nil
}

// Ingest uploads files under the session's admin credential. The role
// check happens before any network activity.
func (s *Session) Ingest(ctx context.Context, files []backend.File) (*ingest.BatchResult, error) {
	s.mu.Lock()
	role := s.role
	key := s.adminKey
	uploader := s.uploader
	s.mu.Unlock()

	if role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	if uploader == nil {
		return nil, errors.New("no uploader configured")
	}

	return ingest.NewBatch(uploader).Run(ctx, files, key), nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session's identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Role returns the current role.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// History returns a copy of the turn sequence.
func (s *Session) History() []*model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.History()
}

// Conversation returns the underlying conversation. The pointer is
// live: Submit appends to it on whichever goroutine the query runs
// on. Concurrent readers must use Snapshot instead.
func (s *Session) Conversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Snapshot returns a copy of the conversation taken under the lock,
// safe to read while queries resolve on other goroutines.
func (s *Session) Snapshot() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Clone()
}

// Evidence returns a copy of the current evidence panel. It reflects
// exactly the most recent successful query, or is empty before one.
func (s *Session) Evidence() []model.Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Evidence, len(s.evidence))
	copy(out, s.evidence)
	return out
}

// Terms returns a copy of the current query terms.
func (s *Session) Terms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.terms))
	copy(out, s.terms)
	return out
}

// TopK returns the retrieval width used for the next query.
func (s *Session) TopK() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topK
}

// SetTopK updates the retrieval width, clamped to [MinTopK, MaxTopK].
func (s *Session) SetTopK(k int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topK = clampTopK(k)
}

// Clear discards the history, evidence, and terms. Role and state are
// untouched.
func (s *Session) Clear() {
	s.mu.Lock()
	s.conv.Clear()
	s.evidence = nil
	s.terms = nil
	onEvidence := s.onEvidenceUpdated
	s.mu.Unlock()

	if onEvidence != nil {
		onEvidence(nil)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + time.Now().Format("20060102_150405")
}
