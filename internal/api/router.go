// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api implements the HTTP server: the studio channel WebSocket, the
// settings and capture endpoints, and event/document inspection.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wingedpig/kaleido/internal/api/handlers"
	"github.com/wingedpig/kaleido/internal/api/middleware"
	"github.com/wingedpig/kaleido/internal/capture"
	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/document"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/host"
	"github.com/wingedpig/kaleido/internal/session"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host    string
	Port    int
	TLSCert string // Path to TLS certificate file
	TLSKey  string // Path to TLS private key file
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	EventBus   events.Bus
	Document   *document.Document
	Controller *capture.Controller
	Session    *session.Manager

	// NewHostRouter binds a host message router to a connection's reply
	// sender. Each channel WebSocket gets its own router instance.
	NewHostRouter func(channel.Sender) *host.Router

	Version string // Application version string
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Studio channel WebSocket
	if deps.NewHostRouter != nil {
		channelHandler := handlers.NewChannelHandler(deps.NewHostRouter)
		api.HandleFunc("/channel/ws", channelHandler.WebSocket).Methods("GET")
	}

	// Event handlers
	eventHandler := handlers.NewEventHandler(deps.EventBus)
	api.HandleFunc("/events", eventHandler.History).Methods("GET")
	api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")

	// Notify handler (for external tools)
	notifyHandler := handlers.NewNotifyHandler(deps.EventBus)
	api.HandleFunc("/notify", notifyHandler.Notify).Methods("POST")

	// Capture handlers
	if deps.Controller != nil && deps.Session != nil {
		captureHandler := handlers.NewCaptureHandler(deps.Controller, deps.Session)
		api.HandleFunc("/capture", captureHandler.Status).Methods("GET")
		api.HandleFunc("/capture", captureHandler.Trigger).Methods("POST")
	}

	// Settings handlers
	if deps.Session != nil {
		settingsHandler := handlers.NewSettingsHandler(deps.Session)
		api.HandleFunc("/settings", settingsHandler.Get).Methods("GET")
		api.HandleFunc("/settings", settingsHandler.Update).Methods("PATCH")
		api.HandleFunc("/settings/regenerate", settingsHandler.Regenerate).Methods("POST")
		api.HandleFunc("/settings/colors", settingsHandler.AddColor).Methods("POST")
		api.HandleFunc("/settings/colors/{index}", settingsHandler.SetColor).Methods("PUT")
		api.HandleFunc("/settings/colors/{index}", settingsHandler.RemoveColor).Methods("DELETE")
	}

	// Document handlers
	if deps.Document != nil {
		documentHandler := handlers.NewDocumentHandler(deps.Document)
		api.HandleFunc("/document/nodes", documentHandler.Nodes).Methods("GET")
		api.HandleFunc("/document/nodes/{id}", documentHandler.Node).Methods("GET")
		api.HandleFunc("/document/nodes/{id}/export", documentHandler.Export).Methods("GET")
		api.HandleFunc("/document/selection", documentHandler.Selection).Methods("GET")
		api.HandleFunc("/document/selection", documentHandler.SetSelection).Methods("PUT")
	}

	// Debug/profiling endpoints
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the server.
// If TLS is configured (tls_cert and tls_key), uses HTTPS.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	// Check if TLS is configured
	tlsEnabled, err := CheckTLSConfig(s.cfg.TLSCert, s.cfg.TLSKey)
	if err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	if tlsEnabled {
		certPath := expandPath(s.cfg.TLSCert)
		keyPath := expandPath(s.cfg.TLSKey)
		log.Printf("API server listening on https://%s (TLS enabled)", addr)
		return s.server.ListenAndServeTLS(certPath, keyPath)
	}

	log.Printf("API server listening on http://%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Println("Shutting down API server...")

	// Create a timeout context if none provided
	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
