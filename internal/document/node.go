// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package document implements the host scene graph: nodes, fills, the asset
// registry, selection, and node export. It is the concrete side of the host
// mutation primitives the materializer and rasterizer drive.
package document

import (
	"image/color"

	"github.com/google/uuid"
)

// NodeKind identifies the node type.
type NodeKind string

const (
	KindRectangle NodeKind = "rectangle"
	KindGroup     NodeKind = "group"
)

// PaintKind identifies a fill type.
type PaintKind string

const (
	PaintSolid PaintKind = "solid"
	PaintImage PaintKind = "image"
	PaintVideo PaintKind = "video"
)

// Paint is one fill layer on a node. Image and video paints reference an
// asset by hash.
type Paint struct {
	Kind      PaintKind   `json:"kind"`
	AssetHash string      `json:"asset_hash,omitempty"`
	ScaleMode string      `json:"scale_mode,omitempty"` // "FILL"
	Color     color.NRGBA `json:"color,omitempty"`
}

// Node is a scene graph node. Coordinates are absolute; a group's geometry is
// the bounding box of its children, and moving a group moves its children.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     NodeKind `json:"kind"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	W        float64  `json:"w"`
	H        float64  `json:"h"`
	Fills    []Paint  `json:"fills,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// clone returns a deep copy of the node subtree with fresh IDs.
func (n *Node) clone() *Node {
	copied := &Node{
		ID:    uuid.NewString(),
		Name:  n.Name,
		Kind:  n.Kind,
		X:     n.X,
		Y:     n.Y,
		W:     n.W,
		H:     n.H,
		Fills: append([]Paint(nil), n.Fills...),
	}
	for _, child := range n.Children {
		copied.Children = append(copied.Children, child.clone())
	}
	return copied
}

// translate moves the node subtree by (dx, dy).
func (n *Node) translate(dx, dy float64) {
	n.X += dx
	n.Y += dy
	for _, child := range n.Children {
		child.translate(dx, dy)
	}
}
