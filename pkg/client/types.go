// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "time"

// Settings is the session settings resource.
type Settings struct {
	// Colors are the gradient stops as #RRGGBB hex strings, in order.
	Colors []string `json:"colors"`

	// DarkTop darkens the top edge of the gradient.
	DarkTop bool `json:"darkTop"`

	// Duration is the selected capture length (e.g. "15s", "30s", "60s").
	Duration string `json:"duration"`

	// Playing reports whether the gradient animation is running.
	Playing bool `json:"playing"`
}

// SettingsUpdate is a partial settings change. Nil fields are left unchanged.
type SettingsUpdate struct {
	DarkTop  *bool   `json:"darkTop,omitempty"`
	Playing  *bool   `json:"playing,omitempty"`
	Duration *string `json:"duration,omitempty"`
}

// CaptureStatus describes the capture controller state.
type CaptureStatus struct {
	// State is the controller state name (e.g. "idle", "capturing").
	State string `json:"state"`

	// Recording reports whether a capture is in flight.
	Recording bool `json:"recording"`
}

// Event is an entry from the event log.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

// NotifyResponse is the server's acknowledgment of a notification.
type NotifyResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Paint is one fill layer on a document node.
type Paint struct {
	Kind      string `json:"kind"`
	AssetHash string `json:"asset_hash,omitempty"`
	ScaleMode string `json:"scale_mode,omitempty"`
}

// Node is a document scene graph node.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Fills    []Paint `json:"fills,omitempty"`
	Children []*Node `json:"children,omitempty"`
}
