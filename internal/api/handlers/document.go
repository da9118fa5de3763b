// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wingedpig/kaleido/internal/document"
)

// DocumentHandler exposes read access to the host document.
type DocumentHandler struct {
	doc *document.Document
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(doc *document.Document) *DocumentHandler {
	return &DocumentHandler{doc: doc}
}

// Nodes returns the root nodes in page order.
func (h *DocumentHandler) Nodes(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.doc.Nodes())
}

// Node returns a single root node by ID.
func (h *DocumentHandler) Node(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	node, ok := h.doc.NodeByID(id)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "node not found")
		return
	}
	WriteJSON(w, http.StatusOK, node)
}

// Selection returns the current selection IDs.
func (h *DocumentHandler) Selection(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"selection": h.doc.Selection(),
	})
}

// SetSelectionRequest is the request body for replacing the selection.
type SetSelectionRequest struct {
	IDs []string `json:"ids"`
}

// SetSelection replaces the selection.
func (h *DocumentHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SetSelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON")
		return
	}
	if err := h.doc.SetSelection(req.IDs); err != nil {
		WriteError(w, http.StatusBadRequest, ErrDocumentError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"selection": h.doc.Selection(),
	})
}

// Export rasterizes a root node to PNG bytes.
func (h *DocumentHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.doc.Export(id)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrDocumentError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
