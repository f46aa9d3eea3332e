// docchat TUI - A terminal interface for retrieval-augmented document chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/docchat-tui/internal/auth"
	"github.com/jeranaias/docchat-tui/internal/backend"
	"github.com/jeranaias/docchat-tui/internal/cli"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/speech"
	"github.com/jeranaias/docchat-tui/internal/stream"
	"github.com/jeranaias/docchat-tui/internal/ui/chat"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		plainFlag   = flag.Bool("plain", false, "use the plain terminal interface instead of the TUI")
		backendFlag = flag.String("backend", "", "backend base URL (overrides config)")
		topKFlag    = flag.Int("topk", 0, "number of retrieved snippets (overrides config)")
		configFlag  = flag.String("config", "", "path to config file")
		exportFlag  = flag.String("export-dir", "", "directory for exported conversations")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("docchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*plainFlag, *backendFlag, *topKFlag, *configFlag, *exportFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(plain bool, backendURL string, topK int, configPath, exportDir string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if topK > 0 {
		cfg.Retrieval.TopK = topK
	}

	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:       cfg.Backend.URL,
		QueryTimeout:  cfg.QueryTimeout(),
		IngestTimeout: cfg.IngestTimeout(),
	})

	keystorePath := cfg.Auth.KeystorePath
	if keystorePath == "" {
		keystorePath = auth.DefaultKeystorePath()
	}
	keystore := auth.NewKeystore(keystorePath)

	sess := session.New(session.Config{
		Querier:  client,
		Uploader: client,
		Gate:     auth.NewGate(keystore),
		Renderer: stream.NewWithConfig(cfg.Retrieval.StreamSliceSize, cfg.StreamDelay()),
		TopK:     cfg.Retrieval.TopK,
	})

	// Credential rotation on disk takes effect without a restart.
	var watcher *auth.Watcher
	if cfg.Auth.WatchKeystore {
		watcher, err = auth.NewWatcher(keystore)
		if err == nil {
			if err := watcher.Watch(); err != nil {
				watcher.Close()
				watcher = nil
			}
		}
	}
	if watcher != nil {
		defer watcher.Close()
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if plain || !interactive {
		return runPlain(cfg, sess, watcher, exportDir)
	}
	return runTUI(cfg, sess, watcher, exportDir)
}

// loadConfig loads from the given path, or the default location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// runTUI starts the full-screen Bubble Tea interface.
func runTUI(cfg *config.Config, sess *session.Session, watcher *auth.Watcher, exportDir string) error {
	var theme *styles.Theme
	switch cfg.UI.Theme {
	case "dark":
		theme = styles.NewThemeWithBackground(true)
	case "light":
		theme = styles.NewThemeWithBackground(false)
	default:
		theme = styles.NewTheme()
	}

	m := chat.New(chat.Options{
		Session:      sess,
		Theme:        theme,
		ExportDir:    exportDir,
		ShowEvidence: cfg.UI.ShowEvidence,
		CompactMode:  cfg.UI.CompactMode,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	chat.Bind(p, sess)
	if watcher != nil {
		watcher.SetReloadCallback(func() {
			p.Send(chat.KeystoreReloadedMsg{})
		})
	}

	_, err := p.Run()
	return err
}

// runPlain starts the readline REPL for dumb terminals and pipes.
// Speech providers are wired only when enabled in config; no real
// provider ships yet, so the noop implementations stand in and
// report themselves unavailable.
func runPlain(cfg *config.Config, sess *session.Session, watcher *auth.Watcher, exportDir string) error {
	_ = watcher // keystore reloads apply silently in plain mode

	opts := cli.Options{
		Session:   sess,
		ExportDir: exportDir,
	}
	if cfg.Speech.OutputEnabled {
		opts.Speech = speech.NoopOutput{}
	}
	if cfg.Speech.InputEnabled {
		opts.SpeechIn = speech.NoopInput{}
	}

	repl := cli.New(opts)
	return repl.Run(context.Background())
}
