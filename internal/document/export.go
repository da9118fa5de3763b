// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// Export rasterizes a root node (including group children) to PNG bytes.
// Video fills cannot be rasterized and cause an export error.
func (d *Document) Export(id string) ([]byte, error) {
	d.mu.Lock()
	var target *Node
	for _, n := range d.roots {
		if n.ID == id {
			target = n
			break
		}
	}
	d.mu.Unlock()

	if target == nil {
		return nil, fmt.Errorf("node %s not found", id)
	}
	if target.W < 1 || target.H < 1 {
		return nil, fmt.Errorf("node %s has empty bounds", id)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, int(target.W), int(target.H)))
	if err := d.render(target, target.X, target.Y, canvas); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return buf.Bytes(), nil
}

// render draws a node subtree onto canvas, with (originX, originY) mapping
// to the canvas origin.
func (d *Document) render(n *Node, originX, originY float64, canvas *image.RGBA) error {
	rect := image.Rect(
		int(n.X-originX),
		int(n.Y-originY),
		int(n.X-originX+n.W),
		int(n.Y-originY+n.H),
	)

	for _, fill := range n.Fills {
		switch fill.Kind {
		case PaintSolid:
			draw.Draw(canvas, rect, image.NewUniform(fill.Color), image.Point{}, draw.Src)

		case PaintImage:
			asset, ok := d.AssetByHash(fill.AssetHash)
			if !ok {
				return fmt.Errorf("image fill references unknown asset %s", fill.AssetHash)
			}
			img, _, err := image.Decode(bytes.NewReader(asset.Data))
			if err != nil {
				return fmt.Errorf("decode image fill: %w", err)
			}
			draw.ApproxBiLinear.Scale(canvas, rect, img, img.Bounds(), draw.Src, nil)

		case PaintVideo:
			return fmt.Errorf("cannot rasterize video fill on node %s", n.ID)

		default:
			return fmt.Errorf("unknown fill kind %q", fill.Kind)
		}
	}

	if n.Kind == KindRectangle && len(n.Fills) == 0 {
		// Unfilled rectangles export as white, matching an empty canvas.
		draw.Draw(canvas, rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	}

	for _, child := range n.Children {
		if err := d.render(child, originX, originY, canvas); err != nil {
			return err
		}
	}
	return nil
}
