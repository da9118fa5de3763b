// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wingedpig/kaleido/internal/capture"
	"github.com/wingedpig/kaleido/internal/session"
)

// CaptureHandler exposes the capture controller.
type CaptureHandler struct {
	controller *capture.Controller
	session    *session.Manager
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(controller *capture.Controller, sess *session.Manager) *CaptureHandler {
	return &CaptureHandler{controller: controller, session: sess}
}

// CaptureRequest is the request body for triggering a capture.
type CaptureRequest struct {
	// Duration overrides the session's selected capture length, e.g. "30s".
	Duration string `json:"duration"`
}

// CaptureStatus describes the controller state.
type CaptureStatus struct {
	State     string `json:"state"`
	Recording bool   `json:"recording"`
}

// Status returns the current capture state.
func (h *CaptureHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, CaptureStatus{
		State:     h.controller.State().String(),
		Recording: h.controller.Recording(),
	})
}

// Trigger starts a capture. A capture already in flight is reported as a
// conflict; the running capture is unaffected.
func (h *CaptureHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON")
			return
		}
	}

	// The duration is read at trigger time, not capture-start time; the two
	// coincide because settings are locked once recording begins.
	duration := h.session.Duration()
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid duration")
			return
		}
		if !session.ValidDuration(d) {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "duration must be one of 15s, 30s, 60s")
			return
		}
		duration = d
	}

	// The capture outlives this request, so it must not inherit the
	// request context.
	_, ok := h.controller.Trigger(context.Background(), duration)
	if !ok {
		WriteError(w, http.StatusConflict, ErrConflict, "capture already in flight")
		return
	}

	WriteJSON(w, http.StatusAccepted, CaptureStatus{
		State:     h.controller.State().String(),
		Recording: h.controller.Recording(),
	})
}
