// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDocument_CreateRectangle(t *testing.T) {
	doc := New(Config{})
	node := doc.CreateRectangle()

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, KindRectangle, node.Kind)
	assert.Len(t, doc.Nodes(), 1)
}

func TestDocument_Clone_OriginalUntouched(t *testing.T) {
	doc := New(Config{})
	orig := doc.CreateRectangle()
	orig.Name = "Source"
	orig.X, orig.Y = 10, 20
	orig.Fills = []Paint{{Kind: PaintSolid, Color: color.NRGBA{R: 255, A: 255}}}

	copied, err := doc.Clone(orig.ID)
	require.NoError(t, err)

	assert.NotEqual(t, orig.ID, copied.ID)
	assert.Equal(t, orig.Name, copied.Name)
	assert.Equal(t, orig.X, copied.X)

	// Mutating the clone must not leak into the original.
	copied.X = 999
	copied.Fills[0].Color = color.NRGBA{G: 255, A: 255}
	assert.Equal(t, 10.0, orig.X)
	assert.Equal(t, uint8(255), orig.Fills[0].Color.R)

	_, err = doc.Clone("missing")
	assert.Error(t, err)
}

func TestDocument_Group(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()
	b := doc.CreateRectangle()
	b.X, b.Y = 200, 50

	group, err := doc.Group([]string{a.ID, b.ID})
	require.NoError(t, err)

	assert.Equal(t, KindGroup, group.Kind)
	assert.Len(t, group.Children, 2)
	assert.Equal(t, 0.0, group.X)
	assert.Equal(t, 300.0, group.W, "bounding box spans both members")
	assert.Equal(t, 150.0, group.H)

	// Members left the root list; only the group remains.
	require.Len(t, doc.Nodes(), 1)
	assert.Equal(t, group.ID, doc.Nodes()[0].ID)
}

func TestDocument_Group_Validation(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()

	_, err := doc.Group([]string{a.ID})
	assert.Error(t, err, "single node is used directly, not grouped")

	_, err = doc.Group([]string{a.ID, "missing"})
	assert.Error(t, err)
}

func TestDocument_MoveTo_GroupCarriesChildren(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()
	b := doc.CreateRectangle()
	b.X = 100

	group, err := doc.Group([]string{a.ID, b.ID})
	require.NoError(t, err)

	require.NoError(t, doc.MoveTo(group.ID, 1000, 500))
	assert.Equal(t, 1000.0, group.X)
	assert.Equal(t, 1000.0, group.Children[0].X)
	assert.Equal(t, 1100.0, group.Children[1].X)
	assert.Equal(t, 500.0, group.Children[0].Y)
}

func TestDocument_Remove_ClearsSelection(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()
	b := doc.CreateRectangle()
	require.NoError(t, doc.SetSelection([]string{a.ID, b.ID}))

	require.NoError(t, doc.Remove(a.ID))
	assert.Len(t, doc.Nodes(), 1)
	assert.Equal(t, []string{b.ID}, doc.Selection())

	assert.Error(t, doc.Remove(a.ID), "already removed")
}

func TestDocument_SetSelection_Validation(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()

	assert.Error(t, doc.SetSelection([]string{"missing"}))
	require.NoError(t, doc.SetSelection([]string{a.ID}))
	assert.Equal(t, []string{a.ID}, doc.Selection())
}

func TestDocument_ScaleAndPosition(t *testing.T) {
	doc := New(Config{Viewport: Viewport{X: 100, Y: 200, W: 1000, H: 800}})
	node := doc.CreateRectangle()
	node.W, node.H = 200, 100

	require.NoError(t, doc.ScaleAndPosition(node.ID, 1, 604))

	// Height scales to the reference dimension, width keeps aspect.
	assert.InDelta(t, 604.0, node.H, 0.001)
	assert.InDelta(t, 1208.0, node.W, 0.001)

	// Centered in the viewport.
	assert.InDelta(t, 100+(1000-node.W)/2, node.X, 0.001)
	assert.InDelta(t, 200+(800-node.H)/2, node.Y, 0.001)
}

func TestDocument_ScaleAndPosition_Validation(t *testing.T) {
	doc := New(Config{})
	node := doc.CreateRectangle()

	assert.Error(t, doc.ScaleAndPosition(node.ID, 0, 604))
	assert.Error(t, doc.ScaleAndPosition(node.ID, 1, 0))
	assert.Error(t, doc.ScaleAndPosition("missing", 1, 604))
}

func TestDocument_CreateImageAsset(t *testing.T) {
	doc := New(Config{})

	data := encodePNG(t, 4, 4, color.NRGBA{R: 255, A: 255})
	asset, err := doc.CreateImageAsset(data)
	require.NoError(t, err)
	assert.NotEmpty(t, asset.Hash)
	assert.Equal(t, AssetImage, asset.Kind)

	got, ok := doc.AssetByHash(asset.Hash)
	assert.True(t, ok)
	assert.Equal(t, asset.Hash, got.Hash)

	_, err = doc.CreateImageAsset([]byte("not an image"))
	assert.Error(t, err)
}

func TestDocument_CreateVideoAsset_CapabilityTier(t *testing.T) {
	free := New(Config{VideoSupported: false})
	_, err := free.CreateVideoAsset([]byte("--kaleidoframe\r\n..."))
	assert.ErrorIs(t, err, ErrVideoUnsupported)

	pro := New(Config{VideoSupported: true})
	asset, err := pro.CreateVideoAsset([]byte("--kaleidoframe\r\n..."))
	require.NoError(t, err)
	assert.Equal(t, AssetVideo, asset.Kind)

	_, err = pro.CreateVideoAsset([]byte("garbage"))
	assert.Error(t, err, "unrecognized container must fail decode")
}

func TestDocument_Export_ImageFill(t *testing.T) {
	doc := New(Config{})
	asset, err := doc.CreateImageAsset(encodePNG(t, 4, 4, color.NRGBA{R: 255, A: 255}))
	require.NoError(t, err)

	node := doc.CreateRectangle()
	node.W, node.H = 16, 16
	node.Fills = []Paint{{Kind: PaintImage, AssetHash: asset.Hash, ScaleMode: "FILL"}}

	data, err := doc.Export(node.ID)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	r, _, _, _ := img.At(8, 8).RGBA()
	assert.Equal(t, uint32(0xffff), r, "scaled fill should be red")
}

func TestDocument_Export_GroupComposite(t *testing.T) {
	doc := New(Config{})
	a := doc.CreateRectangle()
	a.W, a.H = 10, 10
	a.Fills = []Paint{{Kind: PaintSolid, Color: color.NRGBA{R: 255, A: 255}}}
	b := doc.CreateRectangle()
	b.X = 10
	b.W, b.H = 10, 10
	b.Fills = []Paint{{Kind: PaintSolid, Color: color.NRGBA{B: 255, A: 255}}}

	group, err := doc.Group([]string{a.ID, b.ID})
	require.NoError(t, err)

	data, err := doc.Export(group.ID)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	r, _, _, _ := img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	_, _, bl, _ := img.At(15, 2).RGBA()
	assert.Equal(t, uint32(0xffff), bl)
}

func TestDocument_Export_VideoFillFails(t *testing.T) {
	doc := New(Config{VideoSupported: true})
	asset, err := doc.CreateVideoAsset([]byte("--kaleidoframe\r\n..."))
	require.NoError(t, err)

	node := doc.CreateRectangle()
	node.Fills = []Paint{{Kind: PaintVideo, AssetHash: asset.Hash}}

	_, err = doc.Export(node.ID)
	assert.Error(t, err)
}

func TestDocument_Export_Validation(t *testing.T) {
	doc := New(Config{})
	_, err := doc.Export("missing")
	assert.Error(t, err)

	node := doc.CreateRectangle()
	node.W, node.H = 0, 0
	_, err = doc.Export(node.ID)
	assert.Error(t, err)
}
