// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session manages the studio-side settings: the gradient stop list,
// playback flags, and the capture duration. Settings persist through the
// host storage under a single record and are restored on startup.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// StorageKey is the key the settings record lives under in host storage.
const StorageKey = "cache"

// MinDuration is the shortest supported capture duration. Records persisted
// by older builds may carry shorter values; they are migrated up on load.
const MinDuration = 15 * time.Second

// Durations is the set of selectable capture durations.
var Durations = []time.Duration{15 * time.Second, 30 * time.Second, 60 * time.Second}

// DefaultColors is the first-run gradient palette.
var DefaultColors = []string{"#FF00FF", "#00FFFF", "#FFFF00", "#FF007C"}

// State is the current session settings.
type State struct {
	Colors   []string
	DarkTop  bool
	Duration time.Duration
	Playing  bool
}

// DefaultState returns the first-run settings.
func DefaultState() State {
	return State{
		Colors:   append([]string(nil), DefaultColors...),
		Duration: MinDuration,
		Playing:  true,
	}
}

// ValidDuration reports whether d is one of the selectable durations.
func ValidDuration(d time.Duration) bool {
	for _, v := range Durations {
		if v == d {
			return true
		}
	}
	return false
}

// record is the persisted JSON shape. Durations are stored in milliseconds.
type record struct {
	Colors    []string `json:"colors"`
	DarkTop   bool     `json:"darkTop"`
	VidLength int64    `json:"vidLength"`
	Playing   bool     `json:"playing"`
}

// Encode serializes the state into its persisted record shape.
func (s State) Encode() (json.RawMessage, error) {
	data, err := json.Marshal(record{
		Colors:    s.Colors,
		DarkTop:   s.DarkTop,
		VidLength: s.Duration.Milliseconds(),
		Playing:   s.Playing,
	})
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}

// Decode parses a persisted record into a State. A nil or null value means
// first run and yields the defaults. Sub-minimum durations from older
// records migrate up to MinDuration; migrated reports whether that happened.
func Decode(value json.RawMessage) (s State, migrated bool, err error) {
	if len(value) == 0 || string(value) == "null" {
		return DefaultState(), false, nil
	}

	var rec record
	if err := json.Unmarshal(value, &rec); err != nil {
		return State{}, false, fmt.Errorf("decode settings: %w", err)
	}
	if len(rec.Colors) < 2 {
		return State{}, false, fmt.Errorf("settings record has %d colors, need at least 2", len(rec.Colors))
	}

	s = State{
		Colors:   rec.Colors,
		DarkTop:  rec.DarkTop,
		Duration: time.Duration(rec.VidLength) * time.Millisecond,
		Playing:  rec.Playing,
	}
	if s.Duration < MinDuration {
		s.Duration = MinDuration
		migrated = true
	}
	return s, migrated, nil
}
