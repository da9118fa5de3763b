// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Common payload MIME types.
const (
	MimePNG   = "image/png"
	MimeMJPEG = "video/x-motion-jpeg"
)

// EncodeDataURI packages raw bytes as a data:<mime>;base64,<payload> string,
// the transport-safe encoding used for asset payloads on the channel.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI on the first comma and decodes the base64
// payload. The header before the comma is returned as-is (e.g.
// "data:image/png;base64").
func DecodeDataURI(uri string) (header string, data []byte, err error) {
	header, payload, found := strings.Cut(uri, ",")
	if !found {
		return "", nil, fmt.Errorf("data URI has no comma separator")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI payload: %w", err)
	}
	return header, data, nil
}
