// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"log"

	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/document"
	"github.com/wingedpig/kaleido/internal/events"
)

// Payload carries the transport-encoded asset bytes for one materialization.
// Video is optional; Image is the mandatory fallback.
type Payload struct {
	Video string // data URI, may be empty
	Image string // data URI
}

// NodeConfig is the per-caller materialization configuration. The reference
// dimension is a fixed constant chosen by the calling feature, never derived
// from the payload.
type NodeConfig struct {
	NodeName           string
	Scale              float64
	ReferenceDimension float64
}

// Materializer turns an incoming payload into exactly one visual node,
// degrading from a video-backed fill to an image-backed fill when the
// document lacks the video capability tier.
type Materializer struct {
	canvas Canvas
	bus    events.Bus
}

// NewMaterializer creates a materializer over the given canvas.
func NewMaterializer(canvas Canvas, bus events.Bus) *Materializer {
	return &Materializer{canvas: canvas, bus: bus}
}

// Materialize runs the ordered capability attempts: video first (when
// present), then image. The first success wins and no later attempt runs;
// a video failure of any kind is routine and falls through to the image
// path with a capability-degradation notice. Both attempts failing is a
// real error.
func (m *Materializer) Materialize(ctx context.Context, payload Payload, cfg NodeConfig) (*document.Node, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}

	type attempt struct {
		kind string
		run  func() (*document.Node, error)
	}

	var attempts []attempt
	if payload.Video != "" {
		attempts = append(attempts, attempt{"video", func() (*document.Node, error) {
			return m.createVideoNode(payload.Video, cfg)
		}})
	}
	attempts = append(attempts, attempt{"image", func() (*document.Node, error) {
		return m.createImageNode(payload.Image, cfg)
	}})

	var lastErr error
	for i, att := range attempts {
		node, err := att.run()
		if err == nil {
			err = m.place(ctx, node, att.kind, cfg)
			if err == nil {
				if i > 0 {
					// A richer attempt was skipped over: capability
					// degradation, not an error.
					events.Notify(ctx, m.bus, events.SourceHost, "A pro plan is required for video")
					m.publish(ctx, events.EventAssetDegraded, map[string]interface{}{"node": node.ID})
				}
				return node, nil
			}
			// Placement failed after the node was created. Discard it so a
			// later attempt never leaves a second node behind.
			if rmErr := m.canvas.Remove(node.ID); rmErr != nil {
				log.Printf("Materialize: removing unplaced %s node: %v", att.kind, rmErr)
			}
		}
		lastErr = err
		log.Printf("Materialize: %s attempt unavailable: %v", att.kind, err)
	}

	return nil, fmt.Errorf("materialize: all attempts failed: %w", lastErr)
}

func (m *Materializer) createVideoNode(uri string, cfg NodeConfig) (*document.Node, error) {
	_, data, err := channel.DecodeDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("video payload: %w", err)
	}
	asset, err := m.canvas.CreateVideoAsset(data)
	if err != nil {
		return nil, err
	}

	node := m.canvas.CreateRectangle()
	node.Fills = []document.Paint{{Kind: document.PaintVideo, AssetHash: asset.Hash, ScaleMode: "FILL"}}
	return node, nil
}

func (m *Materializer) createImageNode(uri string, cfg NodeConfig) (*document.Node, error) {
	_, data, err := channel.DecodeDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("image payload: %w", err)
	}
	asset, err := m.canvas.CreateImageAsset(data)
	if err != nil {
		return nil, err
	}

	node := m.canvas.CreateRectangle()
	node.Fills = []document.Paint{{Kind: document.PaintImage, AssetHash: asset.Hash, ScaleMode: "FILL"}}
	return node, nil
}

// place applies the shared naming/placement/selection treatment every
// materialized node receives.
func (m *Materializer) place(ctx context.Context, node *document.Node, kind string, cfg NodeConfig) error {
	node.Name = cfg.NodeName
	if err := m.canvas.ScaleAndPosition(node.ID, cfg.Scale, cfg.ReferenceDimension); err != nil {
		return fmt.Errorf("place node: %w", err)
	}
	if err := m.canvas.SetSelection([]string{node.ID}); err != nil {
		return fmt.Errorf("select node: %w", err)
	}
	m.publish(ctx, events.EventAssetCreated, map[string]interface{}{
		"node": node.ID,
		"kind": kind,
	})
	return nil
}

func (m *Materializer) publish(ctx context.Context, typ string, payload map[string]interface{}) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(ctx, events.Event{Type: typ, Source: events.SourceHost, Payload: payload})
}
