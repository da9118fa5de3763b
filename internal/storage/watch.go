// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 100 * time.Millisecond

// ChangeHandler is called with the new value when a watched key changes on
// disk outside the store's own Save path (or through it).
type ChangeHandler func(key string, value json.RawMessage)

// Watcher emits change notifications for keys in a Store, so connected
// studio clients can be re-sent settings that were edited externally.
// Bursty writes are debounced per key.
type Watcher struct {
	mu       sync.Mutex
	store    *Store
	watcher  *fsnotify.Watcher
	handlers map[string][]ChangeHandler
	timers   map[string]*time.Timer
	debounce time.Duration
	closed   bool
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher over the store's directory.
func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(store.Dir()); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch storage directory: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	w := &Watcher{
		store:    store,
		watcher:  fsWatcher,
		handlers: make(map[string][]ChangeHandler),
		timers:   make(map[string]*time.Timer),
		debounce: debounce,
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Watch registers a handler for changes to key.
func (w *Watcher) Watch(key string, handler ChangeHandler) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("watcher is closed")
	}
	w.handlers[key] = append(w.handlers[key], handler)
	return nil
}

// Close stops the watcher and cancels pending notifications.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for key, timer := range w.timers {
		timer.Stop()
		delete(w.timers, key)
	}
	w.mu.Unlock()

	w.watcher.Close()
	w.wg.Wait()
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Writes and creates only; chmod and remove are not value changes.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".json") {
		return
	}
	key := strings.TrimSuffix(name, ".json")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.handlers[key]) == 0 {
		return
	}

	// Debounce per key: a burst of writes yields one notification.
	if timer, exists := w.timers[key]; exists {
		timer.Stop()
	}
	w.timers[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, key)
		handlers := append([]ChangeHandler(nil), w.handlers[key]...)
		w.mu.Unlock()

		value, ok, err := w.store.Load(key)
		if err != nil || !ok {
			return
		}
		for _, handler := range handlers {
			handler(key, value)
		}
	})
}
