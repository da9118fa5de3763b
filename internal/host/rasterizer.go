// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wingedpig/kaleido/internal/events"
)

// ErrNoSelection is returned when an export is requested with nothing
// selected. The router translates it into a no-selection reply.
var ErrNoSelection = errors.New("nothing selected")

// scratchOffset pushes scratch geometry past the right viewport edge so it
// never flashes inside the visible region.
const scratchOffset = 100

// Rasterizer exports the current selection as a PNG without disturbing it.
// It works on disposable clones placed off-viewport and removes every
// scratch node before returning, on success and on failure alike.
type Rasterizer struct {
	canvas Canvas
	bus    events.Bus
}

// NewRasterizer creates a rasterizer over the given canvas.
func NewRasterizer(canvas Canvas, bus events.Bus) *Rasterizer {
	return &Rasterizer{canvas: canvas, bus: bus}
}

// Rasterize clones the selected nodes, groups them when there is more than
// one, moves the scratch geometry off-viewport, and exports it to PNG.
// The original selection is never modified.
func (r *Rasterizer) Rasterize(ctx context.Context) ([]byte, error) {
	selection := r.canvas.Selection()
	if len(selection) == 0 {
		events.Notify(ctx, r.bus, events.SourceHost, "Select at least one node")
		r.publish(ctx, events.EventSelectionEmpty, nil)
		return nil, ErrNoSelection
	}

	var scratch []string
	defer func() {
		for _, id := range scratch {
			if err := r.canvas.Remove(id); err != nil {
				log.Printf("Rasterize: cleanup of %s failed: %v", id, err)
			}
		}
	}()

	clones := make([]string, 0, len(selection))
	for _, id := range selection {
		copied, err := r.canvas.Clone(id)
		if err != nil {
			return nil, r.fail(ctx, fmt.Errorf("clone %s: %w", id, err))
		}
		scratch = append(scratch, copied.ID)
		clones = append(clones, copied.ID)
	}

	// A single clone is exported directly; multiple clones are grouped so
	// the export composites them with their relative layout intact.
	target := clones[0]
	if len(clones) > 1 {
		group, err := r.canvas.Group(clones)
		if err != nil {
			return nil, r.fail(ctx, fmt.Errorf("group clones: %w", err))
		}
		// The group subsumed the clones; it is now the only scratch node.
		scratch = []string{group.ID}
		target = group.ID
	}

	vp := r.canvas.Viewport()
	if err := r.canvas.MoveTo(target, vp.X+vp.W+scratchOffset, vp.Y); err != nil {
		return nil, r.fail(ctx, fmt.Errorf("move scratch node: %w", err))
	}

	data, err := r.canvas.Export(target)
	if err != nil {
		return nil, r.fail(ctx, fmt.Errorf("export scratch node: %w", err))
	}

	r.publish(ctx, events.EventSelectionExported, map[string]interface{}{
		"nodes": len(selection),
		"bytes": len(data),
	})
	return data, nil
}

func (r *Rasterizer) fail(ctx context.Context, err error) error {
	log.Printf("Rasterize: %v", err)
	events.Notify(ctx, r.bus, events.SourceHost, "Error rasterizing selection")
	return err
}

func (r *Rasterizer) publish(ctx context.Context, typ string, payload map[string]interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, events.Event{Type: typ, Source: events.SourceHost, Payload: payload})
}
