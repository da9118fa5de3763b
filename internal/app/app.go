// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the Kaleido components together: config, event bus,
// storage, the host document, the studio surface and capture controller, and
// the API server.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/kaleido/internal/api"
	"github.com/wingedpig/kaleido/internal/capture"
	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/config"
	"github.com/wingedpig/kaleido/internal/document"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/gradient"
	"github.com/wingedpig/kaleido/internal/host"
	"github.com/wingedpig/kaleido/internal/session"
	"github.com/wingedpig/kaleido/internal/storage"
)

// App is the main application container.
type App struct {
	mu sync.RWMutex

	configPath string
	version    string
	config     *config.Config

	eventBus   events.Bus
	store      *storage.Store
	watcher    *storage.Watcher
	document   *document.Document
	surface    *gradient.Surface
	pipe       *channel.Pipe
	hostRouter *host.Router
	controller *capture.Controller
	bridge     *session.Bridge
	session    *session.Manager
	apiServer  *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Debug      bool
	Version    string
}

// New creates a new App instance.
func New(opts Options) (*App, error) {
	app := &App{
		configPath: opts.ConfigPath,
		version:    opts.Version,
		done:       make(chan struct{}),
	}

	// Load configuration; a missing path means built-in defaults.
	var cfg *config.Config
	if opts.ConfigPath != "" {
		loader := config.NewLoader()
		loaded, err := loader.LoadWithDefaults(context.Background(), opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	app.config = cfg

	// Override host/port if specified
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	// Initialize event bus
	app.eventBus = events.NewMemoryBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, time.Hour),
	})

	return app, nil
}

// Config returns the active configuration.
func (app *App) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Initialize sets up all components.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.config

	// Storage
	store, err := storage.NewStore(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.store = store
	log.Printf("Storage directory: %s", store.Dir())

	// Storage watcher: external edits to the settings record surface as
	// events.
	debounce := config.ParseDuration(cfg.Watch.Debounce, 100*time.Millisecond)
	w, err := storage.NewWatcher(store, debounce)
	if err != nil {
		log.Printf("Warning: failed to create storage watcher: %v", err)
	} else {
		app.watcher = w
		err = w.Watch(session.StorageKey, func(key string, value json.RawMessage) {
			app.eventBus.Publish(context.Background(), events.Event{
				Type:    events.EventStorageChanged,
				Source:  events.SourceHost,
				Payload: map[string]interface{}{"key": key},
			})
		})
		if err != nil {
			log.Printf("Warning: failed to watch settings key: %v", err)
		}
	}

	// Host document
	app.document = document.New(document.Config{
		Viewport: document.Viewport{
			X: cfg.Document.Viewport.X,
			Y: cfg.Document.Viewport.Y,
			W: cfg.Document.Viewport.W,
			H: cfg.Document.Viewport.H,
		},
		VideoSupported: cfg.Document.VideoSupported,
	})

	// Studio surface, seeded with defaults until the persisted settings
	// load below.
	surface, err := gradient.NewSurface(cfg.Surface.Width, cfg.Surface.Height, session.DefaultColors)
	if err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	app.surface = surface

	// In-process channel connecting the studio context to the host context.
	app.pipe = channel.NewPipe(0)
	app.hostRouter = app.newHostRouter(app.pipe.Host())

	// Serve the host side before anything sends on the channel.
	go func() {
		if err := app.hostRouter.Serve(context.Background(), app.pipe.Host()); err != nil {
			log.Printf("Host router stopped: %v", err)
		}
	}()

	// Capture controller
	app.controller = capture.NewController(surface, app.pipe.Studio(), app.eventBus, capture.Config{
		FrameRate: cfg.Capture.FrameRate,
	})

	// Settings bridge plus the studio-side receive loop feeding it.
	app.bridge = session.NewBridge(app.pipe.Studio())
	go func() {
		studio := app.pipe.Studio()
		for {
			env, ok := studio.Receive()
			if !ok {
				return
			}
			if !app.bridge.HandleReply(env) {
				log.Printf("Studio: unhandled reply %s", env.Type)
			}
		}
	}()

	// Restore persisted settings (first run falls back to defaults).
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	state, err := app.bridge.Load(loadCtx)
	cancel()
	if err != nil {
		log.Printf("Warning: failed to load settings, using defaults: %v", err)
		state = session.DefaultState()
	}

	sess, err := session.NewManager(surface, app.controller, app.bridge, state)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	app.session = sess
	log.Printf("Session restored: %d colors, duration %s, playing=%v",
		len(state.Colors), state.Duration, state.Playing)

	// Initialize API server
	app.apiServer = api.NewServer(
		api.ServerConfig{
			Host:    cfg.Server.Host,
			Port:    cfg.Server.Port,
			TLSCert: cfg.Server.TLSCert,
			TLSKey:  cfg.Server.TLSKey,
		},
		api.Dependencies{
			EventBus:      app.eventBus,
			Document:      app.document,
			Controller:    app.controller,
			Session:       app.session,
			NewHostRouter: app.newHostRouter,
			Version:       app.version,
		},
	)

	return nil
}

// newHostRouter binds a host message router to a reply sender. The
// in-process pipe and every channel WebSocket each get their own router over
// the shared document and store.
func (app *App) newHostRouter(sender channel.Sender) *host.Router {
	mat := host.NewMaterializer(app.document, app.eventBus)
	ras := host.NewRasterizer(app.document, app.eventBus)
	return host.NewRouter(app.store, mat, ras, sender, app.eventBus, host.RouterConfig{
		VideoRefDim: app.config.Document.VideoRefDim,
		ImageRefDim: app.config.Document.ImageRefDim,
	})
}

// Start starts the API server.
func (app *App) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting API server on %s:%d", app.config.Server.Host, app.config.Server.Port)
		if err := app.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()
	return nil
}

// Run starts the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("Context cancelled, shutting down...")
	case <-app.done:
		log.Printf("Shutdown requested...")
	}

	return app.Shutdown(context.Background())
}

// Shutdown gracefully stops all components.
func (app *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: API server shutdown: %v", err)
		}
	}

	if app.pipe != nil {
		app.pipe.Close()
	}

	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			log.Printf("Warning: storage watcher close: %v", err)
		}
	}

	if app.eventBus != nil {
		if err := app.eventBus.Close(); err != nil {
			log.Printf("Warning: event bus close: %v", err)
		}
	}

	log.Println("Shutdown complete")
	return nil
}

// Stop requests a shutdown from another goroutine.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
