// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel message types.
const (
	MsgSaveStorage       = "save-storage"
	MsgLoadStorage       = "load-storage"
	MsgAddKaleidoscope   = "add-kaleidoscope"
	MsgAddGradientVideo  = "add-fancy-gradient-video"
	MsgAddGradientImage  = "add-fancy-gradient-image"
	MsgGetSelectionImage = "get-selection-image"

	MsgStorageLoaded  = "storage-loaded"
	MsgSelectionImage = "selection-image"
	MsgNoSelection    = "no-selection"
)

// ErrNoSelection is returned by [ChannelConn.ExportSelection] when nothing is
// selected in the host document.
var ErrNoSelection = errors.New("nothing selected")

// ChannelMessage is one type-tagged envelope on the studio channel. Only the
// fields relevant to the Type are populated.
type ChannelMessage struct {
	Type  string          `json:"type"`
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Video string          `json:"video,omitempty"`
	Image string          `json:"image,omitempty"`
}

// ChannelConn is a WebSocket connection speaking the studio channel protocol.
// It sends the same type-tagged envelopes an embedded studio sends, and
// receives the host's replies.
//
// A ChannelConn serializes its operations; concurrent calls are safe but run
// one at a time.
type ChannelConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialChannel opens a channel WebSocket to the Kaleido server at baseURL.
func DialChannel(ctx context.Context, baseURL string) (*ChannelConn, error) {
	wsURL := strings.TrimSuffix(baseURL, "/")
	if strings.HasPrefix(wsURL, "https://") {
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	} else {
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/api/v1/channel/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial channel: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &ChannelConn{conn: conn}, nil
}

// Close closes the connection.
func (ch *ChannelConn) Close() error {
	return ch.conn.Close()
}

// Send writes one envelope to the channel. Delivery is fire-and-forget.
func (ch *ChannelConn) Send(msg ChannelMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.conn.WriteMessage(websocket.TextMessage, data)
}

// SaveStorage persists a value under key in the host's client storage.
func (ch *ChannelConn) SaveStorage(key string, value json.RawMessage) error {
	return ch.Send(ChannelMessage{Type: MsgSaveStorage, Key: key, Value: value})
}

// AddGradientVideo asks the host to materialize a video capture. Both
// arguments are data URIs; the still image is the host's fallback when its
// document lacks the video tier. Fire-and-forget; the outcome surfaces on the
// host's event log.
func (ch *ChannelConn) AddGradientVideo(videoURI, imageURI string) error {
	return ch.Send(ChannelMessage{Type: MsgAddGradientVideo, Video: videoURI, Image: imageURI})
}

// AddGradientImage asks the host to materialize a still capture from an image
// data URI. Fire-and-forget.
func (ch *ChannelConn) AddGradientImage(imageURI string) error {
	return ch.Send(ChannelMessage{Type: MsgAddGradientImage, Image: imageURI})
}

// LoadStorage reads the value stored under key. A missing key returns a nil
// value with no error, mirroring the first-run behavior of the protocol.
func (ch *ChannelConn) LoadStorage(ctx context.Context, key string) (json.RawMessage, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if err := ch.send(ChannelMessage{Type: MsgLoadStorage, Key: key}); err != nil {
		return nil, err
	}

	for {
		msg, err := ch.read(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Type == MsgStorageLoaded && msg.Key == key {
			return msg.Value, nil
		}
	}
}

// ExportSelection asks the host to rasterize the current selection and
// returns the PNG bytes. Returns [ErrNoSelection] when nothing is selected.
func (ch *ChannelConn) ExportSelection(ctx context.Context) ([]byte, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if err := ch.send(ChannelMessage{Type: MsgGetSelectionImage}); err != nil {
		return nil, err
	}

	for {
		msg, err := ch.read(ctx)
		if err != nil {
			return nil, err
		}
		switch msg.Type {
		case MsgNoSelection:
			return nil, ErrNoSelection
		case MsgSelectionImage:
			return decodeDataURI(msg.Image)
		}
	}
}

// send writes an envelope without taking the lock; callers hold it.
func (ch *ChannelConn) send(msg ChannelMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return ch.conn.WriteMessage(websocket.TextMessage, data)
}

// read blocks for the next envelope, honoring the context deadline.
func (ch *ChannelConn) read(ctx context.Context) (ChannelMessage, error) {
	deadline := time.Now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	ch.conn.SetReadDeadline(deadline)

	_, data, err := ch.conn.ReadMessage()
	if err != nil {
		return ChannelMessage{}, fmt.Errorf("failed to read message: %w", err)
	}

	var msg ChannelMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChannelMessage{}, fmt.Errorf("failed to parse message: %w", err)
	}
	return msg, nil
}

// decodeDataURI extracts the payload bytes from a base64 data URI. The URI is
// split on the first comma; everything after it is the base64 payload.
func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	data, err := base64.StdEncoding.DecodeString(uri[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}
