// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"log"
	"sync"
)

const defaultPipeBuffer = 64

// Pipe is an in-memory duplex channel connecting a studio endpoint and a
// host endpoint. Sends are non-blocking: when a side's buffer is full the
// message is dropped, matching the no-backpressure contract of the real
// transport.
type Pipe struct {
	studioToHost chan Envelope
	hostToStudio chan Envelope

	mu     sync.Mutex
	closed bool
}

// NewPipe creates a connected pipe with the given per-direction buffer size.
func NewPipe(buffer int) *Pipe {
	if buffer <= 0 {
		buffer = defaultPipeBuffer
	}
	return &Pipe{
		studioToHost: make(chan Envelope, buffer),
		hostToStudio: make(chan Envelope, buffer),
	}
}

// Studio returns the studio-side endpoint: sends go to the host, receives
// come from the host.
func (p *Pipe) Studio() Endpoint {
	return &pipeEnd{pipe: p, out: p.studioToHost, in: p.hostToStudio}
}

// Host returns the host-side endpoint.
func (p *Pipe) Host() Endpoint {
	return &pipeEnd{pipe: p, out: p.hostToStudio, in: p.studioToHost}
}

// Close shuts down both directions. Subsequent receives drain buffered
// messages, then report closed.
func (p *Pipe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.studioToHost)
	close(p.hostToStudio)
}

// Endpoint is one side of a duplex channel.
type Endpoint interface {
	Sender
	Receiver
}

type pipeEnd struct {
	pipe *Pipe
	out  chan Envelope
	in   chan Envelope
}

func (e *pipeEnd) Send(env Envelope) error {
	e.pipe.mu.Lock()
	defer e.pipe.mu.Unlock()
	if e.pipe.closed {
		return nil // fire-and-forget: dropped
	}
	select {
	case e.out <- env:
	default:
		log.Printf("channel: dropped %s - buffer full", env.Type)
	}
	return nil
}

func (e *pipeEnd) Receive() (Envelope, bool) {
	env, ok := <-e.in
	return env, ok
}
