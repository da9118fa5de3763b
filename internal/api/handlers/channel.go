// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/host"
)

// ChannelHandler bridges remote studio clients onto the host message router
// over a WebSocket. Each text frame is one JSON envelope; replies travel
// back on the same connection.
type ChannelHandler struct {
	// newRouter binds a host router to a connection's reply sender.
	newRouter func(channel.Sender) *host.Router
}

// NewChannelHandler creates a channel handler. newRouter is called once per
// connection with that connection's host-to-studio sender.
func NewChannelHandler(newRouter func(channel.Sender) *host.Router) *ChannelHandler {
	return &ChannelHandler{newRouter: newRouter}
}

// wsSender writes host-to-studio envelopes to a WebSocket connection.
// gorilla/websocket allows one concurrent writer, hence the mutex.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(env channel.Envelope) error {
	data, err := channel.Encode(env)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// WebSocket handles a studio channel connection.
func (h *ChannelHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sender := &wsSender{conn: conn}
	router := h.newRouter(sender)

	// Set up ping/pong
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-pingTicker.C:
				if err := sender.ping(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := channel.DecodeStudio(data)
		if err != nil {
			if errors.Is(err, channel.ErrUnknownType) {
				// Closed protocol: drop and keep the connection alive.
				log.Printf("channel ws: dropping message: %v", err)
				continue
			}
			log.Printf("channel ws: bad envelope: %v", err)
			continue
		}

		if err := router.Handle(ctx, env); err != nil {
			log.Printf("channel ws: %s: %v", env.Type, err)
		}
	}
}
