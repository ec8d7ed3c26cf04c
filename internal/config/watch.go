// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change event
// before reloading. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// =============================================================================
// FILE WATCHER
// =============================================================================

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config, error)
	watcher  *fsnotify.Watcher
}

// Watch starts watching path and calls onChange with the reloaded config
// (or the load error) after each change settles. The parent directory is
// watched rather than the file, so atomic replace-by-rename is seen.
//
// The watcher stops when ctx is cancelled. onChange runs on the watcher
// goroutine and must not block for long.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	w, err := NewWatcher(path, DefaultDebounce, onChange)
	if err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}

// NewWatcher creates a Watcher without starting it. Most callers want Watch.
func NewWatcher(path string, debounce time.Duration, onChange func(*Config, error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	// Stopped timer; armed on each relevant event.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			cfg, err := LoadFromPath(w.path)
			if w.onChange != nil {
				w.onChange(cfg, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onChange != nil {
				w.onChange(nil, fmt.Errorf("config watcher: %w", err))
			}
		}
	}
}
