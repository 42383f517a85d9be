// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/log"
	"github.com/ManuGH/chuck/internal/metrics"
)

// DefaultDebounce coalesces bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store whenever its set file changes on disk.
type Watcher struct {
	path     string
	store    *Store
	debounce time.Duration
	logger   zerolog.Logger

	// OnReload, if set, runs after every successful reload.
	OnReload func(count int)

	mu sync.Mutex
}

// NewWatcher returns a watcher for the set file at path.
func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		store:    store,
		debounce: DefaultDebounce,
		logger:   log.WithComponent("profiles"),
	}
}

// SetDebounce overrides the reload debounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Reload reads the set file and swaps the store contents. A file that fails to
// parse leaves the current fixtures in place.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, err := LoadFile(w.path)
	if err != nil {
		metrics.IncProfileReload("failure")
		return err
	}
	w.store.Replace(ps)
	metrics.IncProfileReload("success")
	w.logger.Info().
		Str(log.FieldEvent, "profiles.reloaded").
		Str(log.FieldPath, w.path).
		Int(log.FieldLightCount, len(ps)).
		Msg("fixture set reloaded")
	if w.OnReload != nil {
		w.OnReload(len(ps))
	}
	return nil
}

// Run watches the set file's directory until ctx ends. The directory is
// watched rather than the file so atomic replaces are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch set file directory: %w", err)
	}
	w.logger.Info().
		Str(log.FieldEvent, "profiles.watcher_started").
		Str(log.FieldPath, w.path).
		Msg("watching fixture set for changes")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(log.FieldEvent, "profiles.watcher_stopped").Msg("fixture set watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().
				Str(log.FieldEvent, "profiles.file_changed").
				Str("op", event.Op.String()).
				Msg("fixture set changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := w.Reload(); err != nil {
					w.logger.Error().
						Err(err).
						Str(log.FieldEvent, "profiles.reload_failed").
						Msg("fixture set reload failed, keeping previous set")
				}
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str(log.FieldEvent, "profiles.watcher_error").
				Msg("fixture set watcher error")
		}
	}
}
