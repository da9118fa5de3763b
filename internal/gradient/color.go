// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gradient implements the animated multi-stop gradient render
// surface. It paints frames into pixel buffers given a color stop list and a
// scrub position, and exposes play/pause/seek.
package gradient

import (
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
)

// ParseHex parses a "#RGB" or "#RRGGBB" color string.
func ParseHex(s string) (color.NRGBA, error) {
	if len(s) == 0 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: missing #", s)
	}
	hex := s[1:]

	var r, g, b uint64
	var err error
	switch len(hex) {
	case 3:
		r, g, b, err = parseHexParts(hex[0:1], hex[1:2], hex[2:3])
		r, g, b = r*17, g*17, b*17
	case 6:
		r, g, b, err = parseHexParts(hex[0:2], hex[2:4], hex[4:6])
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: bad length", s)
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, nil
}

func parseHexParts(rs, gs, bs string) (r, g, b uint64, err error) {
	if r, err = strconv.ParseUint(rs, 16, 8); err != nil {
		return
	}
	if g, err = strconv.ParseUint(gs, 16, 8); err != nil {
		return
	}
	b, err = strconv.ParseUint(bs, 16, 8)
	return
}

// FormatHex renders a color as "#RRGGBB".
func FormatHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NearbyHex returns a random color within distance of c on each channel,
// used when the user adds a stop next to an existing one.
func NearbyHex(hex string, distance int) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	jitter := func(v uint8) uint8 {
		n := int(v) + rand.Intn(2*distance+1) - distance
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		return uint8(n)
	}
	return FormatHex(color.NRGBA{R: jitter(c.R), G: jitter(c.G), B: jitter(c.B), A: 255}), nil
}

// ParseColors parses an ordered stop list, requiring at least two stops.
func ParseColors(hexes []string) ([]color.NRGBA, error) {
	if len(hexes) < 2 {
		return nil, fmt.Errorf("gradient needs at least 2 colors, got %d", len(hexes))
	}
	colors := make([]color.NRGBA, len(hexes))
	for i, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return nil, err
		}
		colors[i] = c
	}
	return colors, nil
}

// lerp interpolates between two colors, t in [0,1].
func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
