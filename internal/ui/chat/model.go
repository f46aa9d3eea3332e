// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// INPUT PROMPT MODES
// =============================================================================

// promptMode controls what the input line collects.
type promptMode int

const (
	promptQuery    promptMode = iota // Normal query input
	promptAdminKey                   // Masked admin key entry
	promptTOTPCode                   // Second factor code entry
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Session state machine; all conversation mutations go through it.
	session *session.Session

	// Mirrored session state. The session fires events on its own
	// goroutine, so the view renders from these copies, updated only
	// in the update loop.
	turns     []*model.Turn
	evidence  []model.Evidence
	streaming string
	thinking  bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	evPanel  *components.EvidencePanel

	// Input prompt state
	prompt     promptMode
	pendingKey string // Key held while waiting for the second factor

	// Transient status line
	status      string
	statusError bool

	// Help overlay
	showHelp bool

	// Layout preferences from config
	showEvidence bool
	compactMode  bool

	// Export destination
	exportDir string

	quitting bool
}

// Options configures a new chat model.
type Options struct {
	Session   *session.Session
	Theme     *styles.Theme
	ExportDir string

	// ShowEvidence displays the evidence panel in wide layouts.
	ShowEvidence bool

	// CompactMode drops per-turn timestamps from the transcript.
	CompactMode bool
}

// New creates a new chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 12,
	}
	sp.Style = theme.Spinner

	m := Model{
		theme:        theme,
		session:      opts.Session,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		evPanel:      components.NewEvidencePanel(theme),
		exportDir:    opts.ExportDir,
		showEvidence: opts.ShowEvidence,
		compactMode:  opts.CompactMode,
	}
	if opts.Session != nil {
		m.turns = opts.Session.History()
		m.evidence = opts.Session.Evidence()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Session returns the underlying session.
func (m Model) Session() *session.Session {
	return m.session
}

// enterPrompt switches the input line into a credential prompt.
func (m *Model) enterPrompt(mode promptMode) {
	m.prompt = mode
	m.input.Reset()
	switch mode {
	case promptAdminKey:
		m.input.EchoMode = textinput.EchoPassword
		m.input.Placeholder = "Admin key"
		m.input.Prompt = "key> "
	case promptTOTPCode:
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "6-digit code"
		m.input.Prompt = "code> "
	default:
		m.exitPrompt()
	}
}

// exitPrompt restores normal query input.
func (m *Model) exitPrompt() {
	m.prompt = promptQuery
	m.pendingKey = ""
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = "Ask about your documents..."
	m.input.Prompt = "> "
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusError = isError
}
