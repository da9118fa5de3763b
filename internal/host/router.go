// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/storage"
)

// Default reference dimensions for materialized nodes. The gradient paths
// size against the render surface edge; the standalone image path sizes
// against its larger export resolution.
const (
	RefDimVideo = 604
	RefDimImage = 1024
)

// RouterConfig tunes the router. Zero values select the defaults above.
type RouterConfig struct {
	VideoRefDim float64
	ImageRefDim float64
}

// Router dispatches studio-to-host envelopes to the document-side
// components. It is the single entry point of the host context: every
// message type in the protocol has a handler here, and anything outside
// the closed set is logged and dropped.
type Router struct {
	store       *storage.Store
	mat         *Materializer
	ras         *Rasterizer
	sender      channel.Sender
	bus         events.Bus
	videoRefDim float64
	imageRefDim float64
}

// NewRouter creates a router. sender is the host-to-studio direction of the
// channel, used for replies.
func NewRouter(store *storage.Store, mat *Materializer, ras *Rasterizer, sender channel.Sender, bus events.Bus, cfg RouterConfig) *Router {
	if cfg.VideoRefDim <= 0 {
		cfg.VideoRefDim = RefDimVideo
	}
	if cfg.ImageRefDim <= 0 {
		cfg.ImageRefDim = RefDimImage
	}
	return &Router{
		store:       store,
		mat:         mat,
		ras:         ras,
		sender:      sender,
		bus:         bus,
		videoRefDim: cfg.VideoRefDim,
		imageRefDim: cfg.ImageRefDim,
	}
}

// Serve consumes envelopes from the endpoint until it closes or ctx is
// canceled. Handler errors are logged, never fatal: a bad message must not
// take down the message loop.
func (r *Router) Serve(ctx context.Context, in channel.Receiver) error {
	for {
		env, ok := in.Receive()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.Handle(ctx, env); err != nil {
			log.Printf("Router: %s: %v", env.Type, err)
		}
	}
}

// Handle dispatches a single envelope.
func (r *Router) Handle(ctx context.Context, env channel.Envelope) error {
	switch env.Type {
	case channel.TypeSaveStorage:
		return r.handleSaveStorage(env)

	case channel.TypeLoadStorage:
		return r.handleLoadStorage(env)

	case channel.TypeAddKaleidoscope, channel.TypeAddGradientVideo:
		return r.handleMaterialize(ctx, env, NodeConfig{
			NodeName:           "Kaleidoscope",
			Scale:              1,
			ReferenceDimension: r.videoRefDim,
		})

	case channel.TypeAddGradientImage:
		return r.handleMaterialize(ctx, env, NodeConfig{
			NodeName:           "Kaleidoscope",
			Scale:              1,
			ReferenceDimension: r.imageRefDim,
		})

	case channel.TypeGetSelectionImage:
		return r.handleGetSelectionImage(ctx)

	default:
		// Closed protocol: unknown tags are dropped, not guessed at.
		log.Printf("Router: dropping message with unknown type %q", env.Type)
		return nil
	}
}

func (r *Router) handleSaveStorage(env channel.Envelope) error {
	if env.Key == "" {
		return fmt.Errorf("save-storage without key")
	}
	if err := r.store.Save(env.Key, env.Value); err != nil {
		return fmt.Errorf("save %q: %w", env.Key, err)
	}
	return nil
}

func (r *Router) handleLoadStorage(env channel.Envelope) error {
	if env.Key == "" {
		return fmt.Errorf("load-storage without key")
	}
	value, ok, err := r.store.Load(env.Key)
	if err != nil {
		return fmt.Errorf("load %q: %w", env.Key, err)
	}
	reply := channel.Envelope{Type: channel.TypeStorageLoaded, Key: env.Key}
	if ok {
		reply.Value = value
	}
	// Absent keys reply with a null value so the studio applies first-run
	// defaults.
	return r.sender.Send(reply)
}

func (r *Router) handleMaterialize(ctx context.Context, env channel.Envelope, cfg NodeConfig) error {
	if env.Image == "" {
		return fmt.Errorf("%s without image payload", env.Type)
	}
	_, err := r.mat.Materialize(ctx, Payload{Video: env.Video, Image: env.Image}, cfg)
	return err
}

func (r *Router) handleGetSelectionImage(ctx context.Context) error {
	data, err := r.ras.Rasterize(ctx)
	if errors.Is(err, ErrNoSelection) {
		return r.sender.Send(channel.Envelope{Type: channel.TypeNoSelection})
	}
	if err != nil {
		// The rasterizer already notified the user; no reply is sent so
		// the studio keeps whatever image it had.
		return err
	}
	return r.sender.Send(channel.Envelope{
		Type:  channel.TypeSelectionImage,
		Image: channel.EncodeDataURI(channel.MimePNG, data),
	})
}
