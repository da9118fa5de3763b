// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading for the Kaleido host.
package config

import (
	"time"
)

// Config is the root configuration structure for Kaleido.
type Config struct {
	Version  string         `json:"version"`
	Project  ProjectConfig  `json:"project"`
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Surface  SurfaceConfig  `json:"surface"`
	Capture  CaptureConfig  `json:"capture"`
	Document DocumentConfig `json:"document"`
	Events   EventsConfig   `json:"events"`
	Watch    WatchConfig    `json:"watch"`
	Logging  LoggingConfig  `json:"logging"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int    `json:"port"`
	Host    string `json:"host"`
	TLSCert string `json:"tls_cert"` // Path to TLS certificate file (enables HTTPS if both cert and key set)
	TLSKey  string `json:"tls_key"`  // Path to TLS private key file
}

// StorageConfig configures the key/value store.
type StorageConfig struct {
	Dir string `json:"dir"`
}

// SurfaceConfig configures the gradient render surface.
type SurfaceConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CaptureConfig configures the capture controller.
type CaptureConfig struct {
	FrameRate int      `json:"frame_rate"`
	Durations []string `json:"durations"` // selectable capture lengths, e.g. ["15s", "30s", "60s"]
}

// DocumentConfig configures the host document.
type DocumentConfig struct {
	Viewport       ViewportConfig `json:"viewport"`
	VideoSupported bool           `json:"video_supported"`
	VideoRefDim    float64        `json:"video_ref_dim"` // reference height for video-path nodes
	ImageRefDim    float64        `json:"image_ref_dim"` // reference height for image-path nodes
}

// ViewportConfig describes the visible page region.
type ViewportConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// EventsConfig configures the event system.
type EventsConfig struct {
	History HistoryConfig `json:"history"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// WatchConfig configures storage file watching.
type WatchConfig struct {
	Debounce string `json:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// ParseDuration parses a duration string, returning def on empty or invalid
// input.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// CaptureDurations returns the configured capture lengths as durations,
// skipping entries that fail to parse.
func (c *Config) CaptureDurations() []time.Duration {
	var out []time.Duration
	for _, s := range c.Capture.Durations {
		if d, err := time.ParseDuration(s); err == nil {
			out = append(out, d)
		}
	}
	return out
}
