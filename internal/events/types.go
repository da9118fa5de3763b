// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the event bus for Kaleido. Both contexts publish
// lifecycle events here, and user-facing notifications travel as notify.user
// events on the same bus.
package events

import (
	"context"
	"time"
)

// Event is an immutable event record.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"` // "studio" or "host"
	Payload   map[string]interface{} `json:"payload"`
}

// Handler processes received events.
type Handler func(ctx context.Context, event Event) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// Filter selects events from history.
type Filter struct {
	Types []string  // Event type patterns (supports wildcards)
	Since time.Time // Events after this time
	Limit int       // Maximum events to return
}

// Bus is the event pub/sub system.
type Bus interface {
	// Publish emits an event to all matching subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a synchronous handler for events matching pattern.
	Subscribe(pattern string, handler Handler) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History retrieves past events matching filter.
	History(filter Filter) ([]Event, error)

	// Close shuts down the bus.
	Close() error
}

// Event sources.
const (
	SourceStudio = "studio"
	SourceHost   = "host"
)

// Common event types
const (
	// Capture controller lifecycle
	EventCaptureStarted    = "capture.started"
	EventCaptureEncoding   = "capture.encoding"
	EventCaptureDispatched = "capture.dispatched"
	EventCaptureFailed     = "capture.failed"

	// Host materialization
	EventAssetCreated  = "asset.created"
	EventAssetDegraded = "asset.degraded" // video tier unavailable, fell back to image

	// Selection export
	EventSelectionExported = "selection.exported"
	EventSelectionEmpty    = "selection.empty"

	// User-visible notifications (toast-equivalent)
	EventNotifyUser = "notify.user"

	// Storage
	EventStorageChanged = "storage.changed"
)

// Notify publishes a user-visible notification message.
func Notify(ctx context.Context, bus Bus, source, message string) {
	if bus == nil {
		return
	}
	bus.Publish(ctx, Event{
		Type:    EventNotifyUser,
		Source:  source,
		Payload: map[string]interface{}{"message": message},
	})
}
