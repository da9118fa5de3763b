// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// ErrVideoUnsupported is returned by CreateVideoAsset when the document's
// capability tier does not include video fills. This is the routine,
// expected failure that triggers the image fallback.
var ErrVideoUnsupported = errors.New("video assets not supported on this plan")

// AssetKind identifies an asset type.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// Asset is a decoded, content-addressed payload held by the document.
type Asset struct {
	Hash string
	Kind AssetKind
	Data []byte
}

// CreateImageAsset decodes raster bytes (PNG or JPEG) and registers them as
// an image asset.
func (d *Document) CreateImageAsset(data []byte) (Asset, error) {
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return Asset{}, fmt.Errorf("decode image asset: %w", err)
	}

	asset := Asset{Hash: hashAsset(data), Kind: AssetImage, Data: data}
	d.mu.Lock()
	d.assets[asset.Hash] = asset
	d.mu.Unlock()
	return asset, nil
}

// CreateVideoAsset registers video bytes as a video asset. Requires the
// video capability tier and a recognizable motion-JPEG stream.
func (d *Document) CreateVideoAsset(data []byte) (Asset, error) {
	d.mu.Lock()
	videoTier := d.videoTier
	d.mu.Unlock()

	if !videoTier {
		return Asset{}, ErrVideoUnsupported
	}
	if !bytes.HasPrefix(data, []byte("--")) {
		return Asset{}, fmt.Errorf("decode video asset: unrecognized container")
	}

	asset := Asset{Hash: hashAsset(data), Kind: AssetVideo, Data: data}
	d.mu.Lock()
	d.assets[asset.Hash] = asset
	d.mu.Unlock()
	return asset, nil
}

// AssetByHash looks up a registered asset.
func (d *Document) AssetByHash(hash string) (Asset, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	asset, ok := d.assets[hash]
	return asset, ok
}

func hashAsset(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
