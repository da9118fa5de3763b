// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load_ValidConfig(t *testing.T) {
	configContent := `{
		version: "1.0"
		project: {
			name: "studio-deck"
			description: "Gradient capture host"
		}
		server: {
			port: 8080
			host: "127.0.0.1"
		}
		storage: {
			dir: "/tmp/kaleido"
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "studio-deck", cfg.Project.Name)
	assert.Equal(t, "Gradient capture host", cfg.Project.Description)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/tmp/kaleido", cfg.Storage.Dir)
}

func TestLoader_Load_HJSONFeatures(t *testing.T) {
	// Test HJSON-specific features: comments, unquoted keys, trailing commas
	configContent := `{
		// This is a comment
		version: "1.0"

		# Hash comment
		project: {
			name: studio-deck
			description: '''
				Multi-line
				description
			'''
		}

		server: {
			port: 8080,
			host: 127.0.0.1,
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "studio-deck", cfg.Project.Name)
	assert.Contains(t, cfg.Project.Description, "Multi-line")
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoader_Load_AllSections(t *testing.T) {
	configContent := `{
		version: "1.0"

		project: {
			name: "full-project"
		}

		server: {
			port: 9000
			host: "0.0.0.0"
			tls_cert: "/etc/kaleido/cert.pem"
			tls_key: "/etc/kaleido/key.pem"
		}

		storage: {
			dir: "/var/lib/kaleido"
		}

		surface: {
			width: 604
			height: 604
		}

		capture: {
			frame_rate: 24
			durations: ["15s", "30s", "60s"]
		}

		document: {
			viewport: { x: 0, y: 0, w: 2560, h: 1440 }
			video_supported: true
			video_ref_dim: 604
			image_ref_dim: 1024
		}

		events: {
			history: {
				max_events: 5000
				max_age: "2h"
			}
		}

		watch: {
			debounce: "500ms"
		}

		logging: {
			level: "debug"
			format: "text"
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "/etc/kaleido/cert.pem", cfg.Server.TLSCert)
	assert.Equal(t, "/var/lib/kaleido", cfg.Storage.Dir)
	assert.Equal(t, 604, cfg.Surface.Width)
	assert.Equal(t, 24, cfg.Capture.FrameRate)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second, 60 * time.Second}, cfg.CaptureDurations())
	assert.True(t, cfg.Document.VideoSupported)
	assert.Equal(t, 2560.0, cfg.Document.Viewport.W)
	assert.Equal(t, 604.0, cfg.Document.VideoRefDim)
	assert.Equal(t, 1024.0, cfg.Document.ImageRefDim)
	assert.Equal(t, 5000, cfg.Events.History.MaxEvents)
	assert.Equal(t, "2h", cfg.Events.History.MaxAge)
	assert.Equal(t, "500ms", cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoader_Load_Defaults(t *testing.T) {
	configContent := `{
		version: "1.0"
		project: { name: "test" }
	}`

	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), writeTestConfig(t, configContent))
	require.NoError(t, err)

	assert.Equal(t, 8626, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ".kaleido/storage", cfg.Storage.Dir)
	assert.Equal(t, 604, cfg.Surface.Width)
	assert.Equal(t, 604, cfg.Surface.Height)
	assert.Equal(t, 30, cfg.Capture.FrameRate)
	assert.Equal(t, []string{"15s", "30s", "60s"}, cfg.Capture.Durations)
	assert.Equal(t, 1920.0, cfg.Document.Viewport.W)
	assert.Equal(t, 604.0, cfg.Document.VideoRefDim)
	assert.Equal(t, 1024.0, cfg.Document.ImageRefDim)
	assert.Equal(t, "100ms", cfg.Watch.Debounce)
	assert.Equal(t, 1000, cfg.Events.History.MaxEvents)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8626, cfg.Server.Port)
	assert.Equal(t, 604, cfg.Surface.Width)
	require.NoError(t, NewValidator().Validate(cfg))
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load(context.Background(), "/nonexistent/path/config.hjson")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoader_Load_InvalidHJSON(t *testing.T) {
	configContent := `{
		version: "1.0"
		invalid json here {{{
	}`

	loader := NewLoader()
	path := writeTestConfig(t, configContent)
	_, err := loader.Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_FindConfig(t *testing.T) {
	dir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer os.Chdir(originalWd)
	os.Chdir(dir)

	loader := NewLoader()

	// No config file exists
	_, err := loader.FindConfig()
	assert.Error(t, err)

	// Create kaleido.hjson
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kaleido.hjson"), []byte(`{}`), 0644))
	path, err := loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "kaleido.hjson")

	// Remove hjson, create json - json should be found
	os.Remove(filepath.Join(dir, "kaleido.hjson"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kaleido.json"), []byte(`{}`), 0644))
	path, err = loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "kaleido.json")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		def      string
		expected string
	}{
		{"500ms", "100ms", "500ms"},
		{"1m", "100ms", "1m"},
		{"", "100ms", "100ms"},
		{"invalid", "100ms", "100ms"},
		{"1h30m", "100ms", "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			defDur := mustParseDuration(tt.def)
			result := ParseDuration(tt.input, defDur)
			assert.Equal(t, mustParseDuration(tt.expected), result)
		})
	}
}

func TestCaptureDurations_SkipsInvalid(t *testing.T) {
	cfg := &Config{}
	cfg.Capture.Durations = []string{"15s", "bogus", "30s"}
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second}, cfg.CaptureDurations())
}

// Helper functions

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	path := writeTestConfig(t, content)
	loader := NewLoader()
	cfg, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	return cfg
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kaleido.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func mustParseDuration(s string) time.Duration {
	dur, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return dur
}
