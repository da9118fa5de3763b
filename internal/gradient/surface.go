// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gradient

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"
)

// cycleSpeed is the fraction of a full gradient cycle traversed per second
// while the surface is playing.
const cycleSpeed = 0.05

// Surface is an animated gradient render surface. Frames are a pure function
// of the stop list, the scrub position, the darken-top flag, and (while
// playing) elapsed time, so captures are reproducible.
type Surface struct {
	mu      sync.Mutex
	width   int
	height  int
	hexes   []string
	colors  []color.NRGBA
	pos     float64 // scrub position, fraction of one cycle
	playing bool
	darkTop bool
}

// NewSurface creates a surface seeded with the given stop list.
func NewSurface(width, height int, hexes []string) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	s := &Surface{width: width, height: height, playing: true}
	if err := s.SetColors(hexes); err != nil {
		return nil, err
	}
	return s, nil
}

// SetColors re-seeds the surface with a new ordered stop list. The change
// takes effect on the next frame.
func (s *Surface) SetColors(hexes []string) error {
	colors, err := ParseColors(hexes)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hexes = append([]string(nil), hexes...)
	s.colors = colors
	return nil
}

// Colors returns the current stop list in order.
func (s *Surface) Colors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hexes...)
}

// Play resumes animation.
func (s *Surface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

// Pause halts animation; frames freeze at the current scrub position.
func (s *Surface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Playing reports whether the surface is animating.
func (s *Surface) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Seek sets the scrub position. Any value is accepted; only the fractional
// part of a cycle matters.
func (s *Surface) Seek(pos float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
}

// SetDarkenTop toggles the cosmetic darkened-top render mode.
func (s *Surface) SetDarkenTop(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkTop = on
}

// DarkenTop reports whether the darkened-top mode is active.
func (s *Surface) DarkenTop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkTop
}

// Size returns the pixel dimensions of the surface.
func (s *Surface) Size() (w, h int) {
	return s.width, s.height
}

// Frame paints the surface at elapsed time t. While paused, t is ignored and
// the frame reflects the scrub position alone.
func (s *Surface) Frame(t time.Duration) *image.RGBA {
	s.mu.Lock()
	colors := s.colors
	phase := s.pos
	if s.playing {
		phase += t.Seconds() * cycleSpeed
	}
	darkTop := s.darkTop
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for x := 0; x < s.width; x++ {
		c := sample(colors, float64(x)/float64(s.width)+phase)
		for y := 0; y < s.height; y++ {
			px := c
			if darkTop {
				// Fade toward black in the top third.
				f := float64(y) / (float64(s.height) / 3)
				if f < 1 {
					px = lerp(color.NRGBA{A: 255}, c, 0.4+0.6*f)
				}
			}
			img.SetRGBA(x, y, color.RGBA{R: px.R, G: px.G, B: px.B, A: 255})
		}
	}
	return img
}

// Snapshot encodes the frame at elapsed time t as PNG bytes.
func (s *Surface) Snapshot(t time.Duration) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Frame(t)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// sample interpolates the stop list at position u, wrapping so the gradient
// cycles smoothly.
func sample(colors []color.NRGBA, u float64) color.NRGBA {
	u = u - math.Floor(u) // wrap to [0,1)
	n := len(colors)
	scaled := u * float64(n)
	i := int(scaled) % n
	next := (i + 1) % n
	return lerp(colors[i], colors[next], scaled-math.Floor(scaled))
}
