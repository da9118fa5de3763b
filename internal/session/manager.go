// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/wingedpig/kaleido/internal/gradient"
)

// ErrRecording is returned for settings mutations attempted while a capture
// is in flight. Settings are frozen for the duration so a recording never
// mixes configurations.
var ErrRecording = errors.New("settings are locked while a capture is running")

// ErrNotPlaying is returned when the capture duration is changed on a paused
// surface. The duration only applies to the video path, which requires a
// playing animation, so the control is live only while playing.
var ErrNotPlaying = errors.New("capture duration is selectable only while playing")

// nearbyDistance bounds the per-channel jitter when deriving a new stop
// from an existing one.
const nearbyDistance = 32

// Recorder reports whether a capture is currently in flight.
type Recorder interface {
	Recording() bool
}

// Saver persists session state. *Bridge satisfies it.
type Saver interface {
	Save(State) error
}

// Manager owns the session settings. Every mutation is applied to the
// render surface synchronously, so the next frame reflects it, and then
// persisted. Mutations are rejected while the recorder is busy.
type Manager struct {
	mu      sync.Mutex
	state   State
	surface *gradient.Surface
	rec     Recorder
	saver   Saver
}

// NewManager creates a manager and applies the initial state to the surface.
func NewManager(surface *gradient.Surface, rec Recorder, saver Saver, initial State) (*Manager, error) {
	if err := surface.SetColors(initial.Colors); err != nil {
		return nil, fmt.Errorf("apply initial colors: %w", err)
	}
	surface.SetDarkenTop(initial.DarkTop)
	if initial.Playing {
		surface.Play()
	} else {
		surface.Pause()
	}
	if !ValidDuration(initial.Duration) {
		initial.Duration = MinDuration
	}
	return &Manager{state: initial, surface: surface, rec: rec, saver: saver}, nil
}

// State returns a copy of the current settings.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Colors = append([]string(nil), m.state.Colors...)
	return s
}

// AddColor appends a new stop derived from the last one and returns it.
func (m *Manager) AddColor() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return "", err
	}

	last := m.state.Colors[len(m.state.Colors)-1]
	hex, err := gradient.NearbyHex(last, nearbyDistance)
	if err != nil {
		return "", err
	}

	colors := append(append([]string(nil), m.state.Colors...), hex)
	if err := m.applyColors(colors); err != nil {
		return "", err
	}
	return hex, nil
}

// SetColor replaces the stop at index i.
func (m *Manager) SetColor(i int, hex string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	if i < 0 || i >= len(m.state.Colors) {
		return fmt.Errorf("color index %d out of range", i)
	}

	colors := append([]string(nil), m.state.Colors...)
	colors[i] = hex
	return m.applyColors(colors)
}

// RemoveColor deletes the stop at index i. The remaining stops keep their
// order. A gradient needs at least two stops.
func (m *Manager) RemoveColor(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	if i < 0 || i >= len(m.state.Colors) {
		return fmt.Errorf("color index %d out of range", i)
	}
	if len(m.state.Colors) <= 2 {
		return fmt.Errorf("gradient needs at least 2 colors")
	}

	colors := append([]string(nil), m.state.Colors[:i]...)
	colors = append(colors, m.state.Colors[i+1:]...)
	return m.applyColors(colors)
}

// SetDarkTop toggles the darkened-top render mode.
func (m *Manager) SetDarkTop(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	m.surface.SetDarkenTop(on)
	m.state.DarkTop = on
	m.persist()
	return nil
}

// SetPlaying starts or freezes the animation.
func (m *Manager) SetPlaying(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	if on {
		m.surface.Play()
	} else {
		m.surface.Pause()
	}
	m.state.Playing = on
	m.persist()
	return nil
}

// SetDuration selects the capture duration. Only the enumerated durations
// are accepted, and only while the animation is playing.
func (m *Manager) SetDuration(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	if !m.state.Playing {
		return ErrNotPlaying
	}
	if !ValidDuration(d) {
		return fmt.Errorf("unsupported capture duration %s", d)
	}
	m.state.Duration = d
	m.persist()
	return nil
}

// Regenerate scrubs the animation to a fresh random position, reseeding the
// gradient's look without touching the stop list. The scrub position is
// ephemeral and never persisted.
func (m *Manager) Regenerate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.gate(); err != nil {
		return err
	}
	m.surface.Seek(rand.Float64())
	return nil
}

// Duration returns the currently selected capture duration.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Duration
}

// applyColors commits a new stop list: surface first, then state, then
// persistence. Caller holds m.mu.
func (m *Manager) applyColors(colors []string) error {
	if err := m.surface.SetColors(colors); err != nil {
		return err
	}
	m.state.Colors = colors
	m.persist()
	return nil
}

// gate rejects mutations while a capture is in flight. Caller holds m.mu.
func (m *Manager) gate() error {
	if m.rec != nil && m.rec.Recording() {
		return ErrRecording
	}
	return nil
}

// persist saves the current state. Persistence failures are logged, not
// returned: the in-memory state and surface already changed, and the next
// successful save catches up. Caller holds m.mu.
func (m *Manager) persist() {
	if m.saver == nil {
		return
	}
	if err := m.saver.Save(m.state); err != nil {
		log.Printf("session: persisting settings failed: %v", err)
	}
}
