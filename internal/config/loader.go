// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a config file in the current directory.
// It looks for kaleido.hjson first, then kaleido.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"kaleido.hjson",
		"kaleido.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for kaleido.hjson, kaleido.json)")
}

// Default returns a fully-defaulted configuration for running without a
// config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8626
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Storage defaults
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = ".kaleido/storage"
	}

	// Surface defaults: the render surface is square, sized to the video
	// reference edge.
	if cfg.Surface.Width == 0 {
		cfg.Surface.Width = 604
	}
	if cfg.Surface.Height == 0 {
		cfg.Surface.Height = 604
	}

	// Capture defaults
	if cfg.Capture.FrameRate == 0 {
		cfg.Capture.FrameRate = 30
	}
	if len(cfg.Capture.Durations) == 0 {
		cfg.Capture.Durations = []string{"15s", "30s", "60s"}
	}

	// Document defaults
	if cfg.Document.Viewport.W == 0 {
		cfg.Document.Viewport.W = 1920
	}
	if cfg.Document.Viewport.H == 0 {
		cfg.Document.Viewport.H = 1080
	}
	if cfg.Document.VideoRefDim == 0 {
		cfg.Document.VideoRefDim = 604
	}
	if cfg.Document.ImageRefDim == 0 {
		cfg.Document.ImageRefDim = 1024
	}

	// Watch defaults
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "100ms"
	}

	// Events defaults
	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 1000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}
}
