// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package channel defines the message protocol between the studio context
// (render surface, capture controller) and the host context (document,
// materializer). Messages are type-tagged JSON envelopes carried over a
// fire-and-forget channel: at-most-once delivery, in order per direction,
// no acknowledgments.
package channel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Studio-to-host message types.
const (
	TypeSaveStorage       = "save-storage"
	TypeLoadStorage       = "load-storage"
	TypeAddKaleidoscope   = "add-kaleidoscope"
	TypeAddGradientVideo  = "add-fancy-gradient-video"
	TypeAddGradientImage  = "add-fancy-gradient-image"
	TypeGetSelectionImage = "get-selection-image"
)

// Host-to-studio message types.
const (
	TypeStorageLoaded  = "storage-loaded"
	TypeSelectionImage = "selection-image"
	TypeNoSelection    = "no-selection"
)

// ErrUnknownType is returned when decoding an envelope whose type tag is not
// part of the protocol. Callers drop such messages explicitly rather than
// falling through an open-ended dispatch table.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is a single protocol message. Only the fields relevant to the
// Type are populated; the rest are omitted on the wire.
type Envelope struct {
	Type string `json:"type"`

	// Storage fields (save-storage, load-storage, storage-loaded).
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`

	// Asset fields (add-* and selection-image). Both are data URIs.
	Video string `json:"video,omitempty"`
	Image string `json:"image,omitempty"`
}

// studioTypes is the closed set of tags the host accepts.
var studioTypes = map[string]bool{
	TypeSaveStorage:       true,
	TypeLoadStorage:       true,
	TypeAddKaleidoscope:   true,
	TypeAddGradientVideo:  true,
	TypeAddGradientImage:  true,
	TypeGetSelectionImage: true,
}

// hostTypes is the closed set of tags the studio accepts.
var hostTypes = map[string]bool{
	TypeStorageLoaded:  true,
	TypeSelectionImage: true,
	TypeNoSelection:    true,
}

// DecodeStudio parses a studio-to-host envelope. Returns ErrUnknownType for
// tags outside the protocol.
func DecodeStudio(data []byte) (Envelope, error) {
	return decode(data, studioTypes)
}

// DecodeHost parses a host-to-studio envelope. Returns ErrUnknownType for
// tags outside the protocol.
func DecodeHost(data []byte) (Envelope, error) {
	return decode(data, hostTypes)
}

func decode(data []byte, valid map[string]bool) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if !valid[env.Type] {
		return env, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return env, nil
}

// Encode serializes an envelope for the wire.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// Sender is the outbound half of a channel endpoint. Send is fire-and-forget:
// a nil return means the message was handed to the transport, not that it was
// delivered or handled.
type Sender interface {
	Send(env Envelope) error
}

// Receiver is the inbound half of a channel endpoint.
type Receiver interface {
	// Receive blocks until a message arrives or the channel is closed.
	Receive() (Envelope, bool)
}
