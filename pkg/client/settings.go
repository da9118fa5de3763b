// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingsClient provides access to the session settings.
//
// Settings cover the gradient colors, the dark-top flag, the capture
// duration, and the playback state. Changes are rejected with a "conflict"
// error while a capture is recording.
//
// Access this client through [Client.Settings]:
//
//	settings, err := client.Settings.Get(ctx)
type SettingsClient struct {
	c *Client
}

// Get returns the current settings.
func (s *SettingsClient) Get(ctx context.Context) (*Settings, error) {
	data, err := s.c.get(ctx, "/api/v1/settings")
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return &settings, nil
}

// Update applies a partial settings change and returns the new settings.
func (s *SettingsClient) Update(ctx context.Context, update SettingsUpdate) (*Settings, error) {
	data, err := s.c.patchJSON(ctx, "/api/v1/settings", update)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return &settings, nil
}

// Regenerate scrubs the animation to a fresh random position and returns the
// (unchanged) settings.
func (s *SettingsClient) Regenerate(ctx context.Context) (*Settings, error) {
	data, err := s.c.post(ctx, "/api/v1/settings/regenerate")
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return &settings, nil
}

// colorsResponse is the wire shape of color mutation replies.
type colorsResponse struct {
	Color  string   `json:"color"`
	Colors []string `json:"colors"`
}

// AddColor appends a new gradient stop derived from the last one.
// Returns the new stop's hex value and the full color list.
func (s *SettingsClient) AddColor(ctx context.Context) (string, []string, error) {
	data, err := s.c.post(ctx, "/api/v1/settings/colors")
	if err != nil {
		return "", nil, err
	}

	var resp colorsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to parse colors: %w", err)
	}

	return resp.Color, resp.Colors, nil
}

// SetColor replaces the gradient stop at index with the given hex color.
func (s *SettingsClient) SetColor(ctx context.Context, index int, color string) ([]string, error) {
	path := fmt.Sprintf("/api/v1/settings/colors/%d", index)
	data, err := s.c.putJSON(ctx, path, map[string]string{"color": color})
	if err != nil {
		return nil, err
	}

	var resp colorsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse colors: %w", err)
	}

	return resp.Colors, nil
}

// RemoveColor deletes the gradient stop at index. At least two stops always
// remain; removing below that is rejected.
func (s *SettingsClient) RemoveColor(ctx context.Context, index int) ([]string, error) {
	path := fmt.Sprintf("/api/v1/settings/colors/%d", index)
	data, err := s.c.delete(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp colorsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse colors: %w", err)
	}

	return resp.Colors, nil
}
