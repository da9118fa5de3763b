// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package capture implements the controller that turns the live render
// surface into a finite asset payload and dispatches it across the channel.
package capture

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/gradient"
)

// State is the capture state machine state.
type State int

const (
	// StateIdle means no capture is in flight.
	StateIdle State = iota
	// StateCapturing means frames are being recorded for a fixed duration.
	StateCapturing
	// StateEncoding means recording stopped and chunks are being flushed.
	StateEncoding
	// StateDispatched means the asset message has been handed to the channel.
	StateDispatched
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateDispatched:
		return "dispatched"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultFrameRate = 30

// Config configures a Controller.
type Config struct {
	// FrameRate is the video capture rate in frames per second.
	FrameRate int

	// NewEncoder constructs the encoder for one capture. Defaults to
	// MJPEGEncoder.
	NewEncoder func() Encoder

	// Clock returns the surface's elapsed animation time. Defaults to time
	// since the controller was created.
	Clock func() time.Duration
}

// Controller drives still-frame snapshots and timed video captures. All
// triggers pass through the state machine: a trigger while a capture is in
// flight is a no-op, rejected at this boundary rather than by caller
// discipline.
type Controller struct {
	mu    sync.Mutex
	state State

	surface    *gradient.Surface
	sender     channel.Sender
	bus        events.Bus
	frameRate  int
	newEncoder func() Encoder
	clock      func() time.Duration
}

// NewController creates a capture controller for the given surface and
// channel sender.
func NewController(surface *gradient.Surface, sender channel.Sender, bus events.Bus, cfg Config) *Controller {
	c := &Controller{
		state:      StateIdle,
		surface:    surface,
		sender:     sender,
		bus:        bus,
		frameRate:  cfg.FrameRate,
		newEncoder: cfg.NewEncoder,
		clock:      cfg.Clock,
	}
	if c.frameRate <= 0 {
		c.frameRate = defaultFrameRate
	}
	if c.newEncoder == nil {
		c.newEncoder = func() Encoder { return &MJPEGEncoder{} }
	}
	if c.clock == nil {
		epoch := time.Now()
		c.clock = func() time.Duration { return time.Since(epoch) }
	}
	return c
}

// State returns the current state machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Recording reports whether a capture is in flight. Session controls are
// disabled while true.
func (c *Controller) Recording() bool {
	return c.State() != StateIdle
}

// Trigger starts a capture. If the surface is playing, a timed video capture
// of the given duration runs; otherwise a one-shot still capture is taken.
// Returns false without doing anything when a capture is already in flight.
// The returned channel yields the pipeline result once and is closed.
func (c *Controller) Trigger(ctx context.Context, duration time.Duration) (<-chan error, bool) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, false
	}
	c.state = StateCapturing
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := c.run(ctx, duration)
		if err != nil {
			log.Printf("Capture failed: %v", err)
			events.Notify(ctx, c.bus, events.SourceStudio, "Capture failed")
			c.publish(ctx, events.EventCaptureFailed, map[string]interface{}{"error": err.Error()})
		}
		c.setState(StateIdle)
		done <- err
	}()
	return done, true
}

// run executes one capture pipeline. The controller is in StateCapturing on
// entry; run leaves state handling of the final Idle reset to Trigger.
func (c *Controller) run(ctx context.Context, duration time.Duration) error {
	if !c.surface.Playing() {
		return c.captureStill(ctx)
	}
	return c.captureVideo(ctx, duration)
}

// captureStill takes a one-shot snapshot and dispatches it. No timed phase.
func (c *Controller) captureStill(ctx context.Context) error {
	still, err := c.surface.Snapshot(c.clock())
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	env := channel.Envelope{
		Type:  channel.TypeAddGradientImage,
		Image: channel.EncodeDataURI(channel.MimePNG, still),
	}
	if err := c.sender.Send(env); err != nil {
		return fmt.Errorf("dispatch still: %w", err)
	}
	c.setState(StateDispatched)
	c.publish(ctx, events.EventCaptureDispatched, map[string]interface{}{"mode": "image"})
	return nil
}

// captureVideo records for exactly duration measured from start-of-recording,
// then encodes and dispatches one message carrying both the video payload and
// the pre-capture still.
func (c *Controller) captureVideo(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("invalid capture duration %v", duration)
	}

	// The still is snapshotted before recording starts so it reflects the
	// frame at request time.
	still, err := c.surface.Snapshot(c.clock())
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	w, h := c.surface.Size()
	enc := c.newEncoder()
	if err := enc.Start(w, h, c.frameRate); err != nil {
		return fmt.Errorf("start encoder: %w", err)
	}

	c.publish(ctx, events.EventCaptureStarted, map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
	})

	start := time.Now()
	interval := time.Second / time.Duration(c.frameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	// First frame immediately, then one per tick until the fixed duration
	// elapses. No early stop, no content-driven termination.
	if err := enc.WriteFrame(c.surface.Frame(c.clock())); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
recording:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			break recording
		case <-ticker.C:
			if err := enc.WriteFrame(c.surface.Frame(c.clock())); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
	}

	c.setState(StateEncoding)
	c.publish(ctx, events.EventCaptureEncoding, nil)

	blob, mime, err := enc.Finalize()
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	env := channel.Envelope{
		Type:  channel.TypeAddGradientVideo,
		Video: channel.EncodeDataURI(mime, blob),
		Image: channel.EncodeDataURI(channel.MimePNG, still),
	}
	if err := c.sender.Send(env); err != nil {
		return fmt.Errorf("dispatch video: %w", err)
	}
	c.setState(StateDispatched)
	c.publish(ctx, events.EventCaptureDispatched, map[string]interface{}{
		"mode":        "video",
		"duration_ms": duration.Milliseconds(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) publish(ctx context.Context, typ string, payload map[string]interface{}) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, events.Event{Type: typ, Source: events.SourceStudio, Payload: payload})
}
