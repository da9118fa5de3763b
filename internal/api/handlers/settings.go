// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wingedpig/kaleido/internal/session"
)

// SettingsHandler exposes the session settings.
type SettingsHandler struct {
	session *session.Manager
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(sess *session.Manager) *SettingsHandler {
	return &SettingsHandler{session: sess}
}

// SettingsView is the wire shape of the session settings.
type SettingsView struct {
	Colors   []string `json:"colors"`
	DarkTop  bool     `json:"darkTop"`
	Duration string   `json:"duration"`
	Playing  bool     `json:"playing"`
}

func viewOf(s session.State) SettingsView {
	return SettingsView{
		Colors:   s.Colors,
		DarkTop:  s.DarkTop,
		Duration: s.Duration.String(),
		Playing:  s.Playing,
	}
}

// Get returns the current settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, viewOf(h.session.State()))
}

// UpdateRequest is the request body for patching settings. Nil fields are
// left unchanged.
type UpdateRequest struct {
	DarkTop  *bool   `json:"darkTop"`
	Playing  *bool   `json:"playing"`
	Duration *string `json:"duration"`
}

// Update patches the settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON")
		return
	}

	if req.DarkTop != nil {
		if !h.apply(w, h.session.SetDarkTop(*req.DarkTop)) {
			return
		}
	}
	if req.Playing != nil {
		if !h.apply(w, h.session.SetPlaying(*req.Playing)) {
			return
		}
	}
	if req.Duration != nil {
		d, err := time.ParseDuration(*req.Duration)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid duration")
			return
		}
		if !h.apply(w, h.session.SetDuration(d)) {
			return
		}
	}

	WriteJSON(w, http.StatusOK, viewOf(h.session.State()))
}

// Regenerate scrubs the animation to a random position, giving the gradient
// a fresh look without changing the settings.
func (h *SettingsHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	if !h.apply(w, h.session.Regenerate()) {
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(h.session.State()))
}

// AddColor appends a new gradient stop derived from the last one.
func (h *SettingsHandler) AddColor(w http.ResponseWriter, r *http.Request) {
	hex, err := h.session.AddColor()
	if err != nil {
		h.apply(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"color":  hex,
		"colors": h.session.State().Colors,
	})
}

// SetColorRequest is the request body for replacing a gradient stop.
type SetColorRequest struct {
	Color string `json:"color"`
}

// SetColor replaces the gradient stop at the index in the URL.
func (h *SettingsHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid index")
		return
	}
	var req SetColorRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON")
		return
	}
	if !h.apply(w, h.session.SetColor(idx, req.Color)) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"colors": h.session.State().Colors,
	})
}

// RemoveColor deletes the gradient stop at the index in the URL.
func (h *SettingsHandler) RemoveColor(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid index")
		return
	}
	if !h.apply(w, h.session.RemoveColor(idx)) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"colors": h.session.State().Colors,
	})
}

// apply writes the appropriate error response for a session mutation result.
// Returns true when the mutation succeeded.
func (h *SettingsHandler) apply(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, session.ErrRecording) || errors.Is(err, session.ErrNotPlaying) {
		WriteError(w, http.StatusConflict, ErrConflict, err.Error())
		return false
	}
	WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
	return false
}
