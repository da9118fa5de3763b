// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Viewport is the user-visible region of the page.
type Viewport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Config configures a document.
type Config struct {
	Viewport Viewport
	// VideoSupported enables the video asset capability tier.
	VideoSupported bool
}

// Document is an in-memory page: root nodes, selection, viewport, and the
// asset registry.
type Document struct {
	mu        sync.Mutex
	roots     []*Node
	selection []string
	viewport  Viewport
	assets    map[string]Asset
	videoTier bool
}

// New creates an empty document.
func New(cfg Config) *Document {
	vp := cfg.Viewport
	if vp.W <= 0 {
		vp.W = 1920
	}
	if vp.H <= 0 {
		vp.H = 1080
	}
	return &Document{
		viewport:  vp,
		assets:    make(map[string]Asset),
		videoTier: cfg.VideoSupported,
	}
}

// Viewport returns the current viewport bounds.
func (d *Document) Viewport() Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// CreateRectangle appends a new rectangle node to the page and returns it.
func (d *Document) CreateRectangle() *Node {
	node := &Node{
		ID:   uuid.NewString(),
		Name: "Rectangle",
		Kind: KindRectangle,
		W:    100,
		H:    100,
	}
	d.mu.Lock()
	d.roots = append(d.roots, node)
	d.mu.Unlock()
	return node
}

// NodeByID finds a root node by ID.
func (d *Document) NodeByID(id string) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.roots {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Nodes returns the root nodes in page order.
func (d *Document) Nodes() []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Node(nil), d.roots...)
}

// Clone deep-copies the node with the given ID and appends the copy to the
// page. The original is untouched.
func (d *Document) Clone(id string) (*Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.roots {
		if n.ID == id {
			copied := n.clone()
			d.roots = append(d.roots, copied)
			return copied, nil
		}
	}
	return nil, fmt.Errorf("node %s not found", id)
}

// Group wraps the given root nodes into a single group node whose geometry
// is their bounding box. The nodes keep their absolute positions.
func (d *Document) Group(ids []string) (*Node, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("grouping needs at least 2 nodes, got %d", len(ids))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	members := make([]*Node, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, n := range d.roots {
			if n.ID == id {
				members = append(members, n)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("node %s not found", id)
		}
	}

	minX, minY := members[0].X, members[0].Y
	maxX, maxY := members[0].X+members[0].W, members[0].Y+members[0].H
	for _, n := range members[1:] {
		if n.X < minX {
			minX = n.X
		}
		if n.Y < minY {
			minY = n.Y
		}
		if n.X+n.W > maxX {
			maxX = n.X + n.W
		}
		if n.Y+n.H > maxY {
			maxY = n.Y + n.H
		}
	}

	group := &Node{
		ID:       uuid.NewString(),
		Name:     "Group",
		Kind:     KindGroup,
		X:        minX,
		Y:        minY,
		W:        maxX - minX,
		H:        maxY - minY,
		Children: members,
	}

	remaining := d.roots[:0]
	for _, n := range d.roots {
		if !containsID(ids, n.ID) {
			remaining = append(remaining, n)
		}
	}
	d.roots = append(remaining, group)
	return group, nil
}

// Remove deletes a root node (and its subtree) from the page. Removing a
// selected node drops it from the selection.
func (d *Document) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, n := range d.roots {
		if n.ID == id {
			d.roots = append(d.roots[:i], d.roots[i+1:]...)
			sel := d.selection[:0]
			for _, sid := range d.selection {
				if sid != id {
					sel = append(sel, sid)
				}
			}
			d.selection = sel
			return nil
		}
	}
	return fmt.Errorf("node %s not found", id)
}

// MoveTo repositions a node; groups carry their children along.
func (d *Document) MoveTo(id string, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.roots {
		if n.ID == id {
			n.translate(x-n.X, y-n.Y)
			return nil
		}
	}
	return fmt.Errorf("node %s not found", id)
}

// Selection returns the IDs of the currently selected root nodes.
func (d *Document) Selection() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.selection...)
}

// SetSelection replaces the selection. All IDs must exist on the page.
func (d *Document) SetSelection(ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		found := false
		for _, n := range d.roots {
			if n.ID == id {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("node %s not found", id)
		}
	}
	d.selection = append([]string(nil), ids...)
	return nil
}

// ScaleAndPosition resizes a node so its height equals scale times the
// caller's reference dimension (preserving aspect ratio) and centers it in
// the viewport. The reference dimension is a per-feature constant supplied
// by the caller, never derived from the payload.
func (d *Document) ScaleAndPosition(id string, scale, referenceDimension float64) error {
	if scale <= 0 || referenceDimension <= 0 {
		return fmt.Errorf("invalid scale %v / reference %v", scale, referenceDimension)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.roots {
		if n.ID != id {
			continue
		}
		if n.H <= 0 {
			return fmt.Errorf("node %s has no height", id)
		}
		factor := scale * referenceDimension / n.H
		n.W *= factor
		n.H *= factor
		n.translate(
			d.viewport.X+(d.viewport.W-n.W)/2-n.X,
			d.viewport.Y+(d.viewport.H-n.H)/2-n.Y,
		)
		return nil
	}
	return fmt.Errorf("node %s not found", id)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
