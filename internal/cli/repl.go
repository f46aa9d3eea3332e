// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/docchat-tui/internal/auth"
	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/speech"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	evidenceHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Emerald).
				Bold(true)

	evidenceIndexStyle = lipgloss.NewStyle().
				Foreground(styles.Emerald)

	markStyle = lipgloss.NewStyle().
			Background(styles.MarkBg).
			Foreground(styles.MarkFg).
			Bold(true)
)

// =============================================================================
// REPL
// =============================================================================

// lineReader abstracts interactive input so tests can script it.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
	Close()
}

// REPL is the plain-terminal chat loop.
type REPL struct {
	session   *session.Session
	reader    lineReader
	out       io.Writer
	renderer  *glamour.TermRenderer
	speech    speech.Output
	speechIn  speech.Input
	exportDir string
}

// Options configures a REPL.
type Options struct {
	Session   *session.Session
	Reader    lineReader    // Defaults to a liner-backed reader
	Out       io.Writer     // Defaults to os.Stdout
	Speech    speech.Output // Optional spoken answers
	SpeechIn  speech.Input  // Optional voice queries via /voice
	ExportDir string
}

// New creates a REPL and wires session events to the output stream.
func New(opts Options) *REPL {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	reader := opts.Reader
	if reader == nil {
		reader = NewInputReader()
	}

	// Markdown rendering is best effort: a nil renderer falls back
	// to raw text.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	r := &REPL{
		session:   opts.Session,
		reader:    reader,
		out:       out,
		renderer:  renderer,
		speech:    opts.Speech,
		speechIn:  opts.SpeechIn,
		exportDir: opts.ExportDir,
	}

	r.session.SetTurnAppendedCallback(r.printTurn)
	r.session.SetEvidenceUpdatedCallback(r.printEvidence)

	return r
}

// Run executes the REPL until the user exits.
func (r *REPL) Run(ctx context.Context) error {
	defer r.reader.Close()

	fmt.Fprintln(r.out, infoStyle.Render("docchat - ask about your documents, /help for commands"))

	for {
		input, err := r.reader.ReadLine(promptStyle.Render("docchat> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		quit, err := r.handleLine(ctx, input)
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if quit {
			return nil
		}
	}
}

// handleLine processes one line of input. Returns true to exit.
func (r *REPL) handleLine(ctx context.Context, input string) (bool, error) {
	if strings.HasPrefix(input, "/") {
		return r.handleCommand(ctx, input)
	}

	err := r.session.Submit(ctx, input)
	if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrEmptyQuery) {
		return false, err
	}
	return false, err
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (r *REPL) handleCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help", "/?":
		r.printHelp()
		return false, nil

	case "/quit", "/exit", "/q":
		return true, nil

	case "/clear":
		r.session.Clear()
		fmt.Fprintln(r.out, infoStyle.Render("conversation cleared"))
		return false, nil

	case "/admin":
		return false, r.handleAdmin()

	case "/voice":
		return false, r.handleVoice(ctx)

	case "/upload":
		if len(args) == 0 {
			return false, errors.New("usage: /upload <file> [file...]")
		}
		return false, r.handleUpload(ctx, args)

	case "/topk":
		if len(args) == 0 {
			fmt.Fprintf(r.out, "top_k is %d\n", r.session.TopK())
			return false, nil
		}
		k, err := strconv.Atoi(args[0])
		if err != nil {
			return false, errors.New("usage: /topk <number>")
		}
		r.session.SetTopK(k)
		fmt.Fprintf(r.out, "top_k set to %d\n", r.session.TopK())
		return false, nil

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = strings.ToLower(args[0])
		}
		return false, r.handleExport(format)

	default:
		return false, fmt.Errorf("unknown command %s, try /help", cmd)
	}
}

// handleAdmin collects credentials interactively and elevates the
// session role.
func (r *REPL) handleAdmin() error {
	if r.session.Role() == session.RoleAdmin {
		fmt.Fprintln(r.out, infoStyle.Render("already authenticated as admin"))
		return nil
	}

	key, err := r.reader.ReadSecret("admin key: ")
	if err != nil {
		return err
	}

	err = r.session.Authenticate(key)
	if errors.Is(err, auth.ErrInvalidCode) {
		code, readErr := r.reader.ReadLine("6-digit code: ")
		if readErr != nil {
			return readErr
		}
		err = r.session.AuthenticateWithCode(key, strings.TrimSpace(code))
	}

	switch {
	case err == nil:
		fmt.Fprintln(r.out, infoStyle.Render("admin access granted"))
		return nil
	case errors.Is(err, auth.ErrNotConfigured):
		return errors.New("no admin key configured on this machine")
	default:
		return errors.New("authentication failed")
	}
}

// handleVoice captures one spoken query and submits it like typed
// input.
func (r *REPL) handleVoice(ctx context.Context) error {
	if r.speechIn == nil || !r.speechIn.Available() {
		return errors.New("voice input is not available on this machine")
	}

	fmt.Fprintln(r.out, infoStyle.Render("listening..."))
	text, err := r.speechIn.Listen(ctx)
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	fmt.Fprintf(r.out, "%s %s\n", promptStyle.Render("docchat>"), text)
	return r.session.Submit(ctx, text)
}

// handleUpload reads the named files and ingests them as a batch.
func (r *REPL) handleUpload(ctx context.Context, paths []string) error {
	var files []backend.File
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, backend.File{
			Name: filepath.Base(p),
			Data: data,
		})
	}

	result, err := r.session.Ingest(ctx, files)
	if err != nil {
		if errors.Is(err, session.ErrNotAdmin) {
			return errors.New("admin access required, run /admin first")
		}
		return err
	}

	for _, res := range result.Results {
		if res.Failed() {
			fmt.Fprintf(r.out, "%s %s: %s\n", errorStyle.Render("[X]"), res.Filename, res.Err)
		} else {
			fmt.Fprintf(r.out, "%s %s: %d chunk(s)\n", infoStyle.Render("[OK]"), res.Filename, res.Chunks)
		}
	}
	return nil
}

// handleExport writes the conversation to a file.
func (r *REPL) handleExport(format string) error {
	var exporter export.Exporter
	switch format {
	case "markdown", "md":
		exporter = export.NewMarkdownExporter(nil)
	case "text", "txt":
		exporter = export.NewTextExporter(nil)
	default:
		return fmt.Errorf("unknown format %s, use markdown or text", format)
	}

	opts := export.DefaultOptions()
	if r.exportDir != "" {
		opts.OutputDir = r.exportDir
	}
	path, err := export.ExportToFile(r.session.Snapshot(), r.session.Evidence(), exporter, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported to %s\n", path)
	return nil
}

func (r *REPL) printHelp() {
	help := `Commands:
  /help                    toggle this help
  /admin                   authenticate for admin operations
  /upload <file>...        index documents (admin only)
  /topk [n]                show or set retrieved snippet count
  /voice                   ask a question by voice (when available)
  /export [markdown|text]  export the conversation
  /clear                   clear the conversation
  /quit                    exit`
	fmt.Fprintln(r.out, help)
}

// =============================================================================
// OUTPUT
// =============================================================================

// printTurn renders a committed turn. User turns are not echoed
// since the user just typed them.
func (r *REPL) printTurn(turn *model.Turn) {
	switch {
	case turn.IsError:
		fmt.Fprintln(r.out, errorStyle.Render(turn.Content))
	case turn.Role == model.RoleAssistant:
		fmt.Fprintln(r.out, r.renderMarkdown(turn.Content))
		if r.speech != nil && r.speech.Available() {
			_ = r.speech.Speak(context.Background(), turn.Content)
		}
	}
}

// printEvidence renders the replaced evidence set under the answer.
func (r *REPL) printEvidence(evidence []model.Evidence) {
	if len(evidence) == 0 {
		return
	}

	fmt.Fprintln(r.out, evidenceHeaderStyle.Render("Evidence"))
	for i, ev := range evidence {
		index := evidenceIndexStyle.Render("[" + strconv.Itoa(i+1) + "]")
		fmt.Fprintf(r.out, "  %s %s\n", index, formatSnippet(ev.Text))
	}
}

// renderMarkdown renders answer text through glamour, falling back
// to the raw text when rendering fails.
func (r *REPL) renderMarkdown(text string) string {
	if r.renderer == nil {
		return text
	}
	rendered, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// formatSnippet converts highlight markup to terminal styling and
// decodes escaped angle brackets.
func formatSnippet(s string) string {
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
		sb.WriteString(markStyle.Render(decodeEntities(s[start+len("<mark>") : end])))
		s = s[end+len("</mark>"):]
	}
	sb.WriteString(decodeEntities(s))
	return sb.String()
}

func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}
