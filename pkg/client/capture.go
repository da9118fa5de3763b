// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// CaptureClient provides access to the capture controller.
//
// Access this client through [Client.Capture]:
//
//	status, err := client.Capture.Trigger(ctx, "")
type CaptureClient struct {
	c *Client
}

// Status returns the current capture state.
func (cc *CaptureClient) Status(ctx context.Context) (*CaptureStatus, error) {
	data, err := cc.c.get(ctx, "/api/v1/capture")
	if err != nil {
		return nil, err
	}

	var status CaptureStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse capture status: %w", err)
	}

	return &status, nil
}

// Trigger starts a capture. An empty duration uses the session's selected
// capture length; otherwise duration must be one of "15s", "30s", "60s".
//
// A capture already in flight is reported as a "conflict" API error; the
// running capture is unaffected.
func (cc *CaptureClient) Trigger(ctx context.Context, duration string) (*CaptureStatus, error) {
	var data json.RawMessage
	var err error
	if duration == "" {
		data, err = cc.c.post(ctx, "/api/v1/capture")
	} else {
		data, err = cc.c.postJSON(ctx, "/api/v1/capture", map[string]string{"duration": duration})
	}
	if err != nil {
		return nil, err
	}

	var status CaptureStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse capture status: %w", err)
	}

	return &status, nil
}
