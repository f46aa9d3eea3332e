// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// KEYSTORE WATCHER
// =============================================================================

// Watcher reloads a keystore when its file changes on disk, so key
// rotation takes effect without restarting the client.
type Watcher struct {
	keystore *Keystore
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	// onReload, when set, is called after each reload. Used by the UI
	// to refresh auth state and by tests to synchronize.
	onReload func()
}

// NewWatcher creates a watcher for the keystore's file.
func NewWatcher(ks *Keystore) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		keystore: ks,
		watcher:  fw,
		debounce: 250 * time.Millisecond,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetReloadCallback registers a function invoked after each reload.
// Must be called before Watch.
func (w *Watcher) SetReloadCallback(fn func()) {
	w.onReload = fn
}

// Watch starts watching for keystore changes.
//
// The parent directory is watched rather than the file itself because
// editors and atomic writers replace the file, which would invalidate
// a file-level watch.
func (w *Watcher) Watch() error {
	dir := filepath.Dir(w.keystore.Path())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// processEvents handles file system events until Close.
func (w *Watcher) processEvents() {
	var timer *time.Timer
	target := filepath.Clean(w.keystore.Path())

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce bursts of events from a single save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.keystore.Reload()
				if w.onReload != nil {
					w.onReload()
				}
			})

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the keystore keeps its
			// last loaded state.
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
