// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package host implements the host-context components: the asset
// materializer, the selection rasterizer, and the message router that
// dispatches incoming channel envelopes to them.
package host

import (
	"github.com/wingedpig/kaleido/internal/document"
)

// Canvas is the set of document mutation primitives the host components
// drive. *document.Document satisfies it; tests substitute failing variants.
type Canvas interface {
	CreateImageAsset(data []byte) (document.Asset, error)
	CreateVideoAsset(data []byte) (document.Asset, error)
	CreateRectangle() *document.Node
	Clone(id string) (*document.Node, error)
	Group(ids []string) (*document.Node, error)
	Remove(id string) error
	MoveTo(id string, x, y float64) error
	Export(id string) ([]byte, error)
	Selection() []string
	SetSelection(ids []string) error
	ScaleAndPosition(id string, scale, referenceDimension float64) error
	Viewport() document.Viewport
}
