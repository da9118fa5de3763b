// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// NotifyClient provides access to user notification operations.
//
// Notifications surface as notify.user events, the same channel the capture
// pipeline and host use to report to the user.
//
// Access this client through [Client.Notify]:
//
//	_, err := client.Notify.Send(ctx, "Render complete")
type NotifyClient struct {
	c *Client
}

// Send emits a user-visible notification.
func (n *NotifyClient) Send(ctx context.Context, message string) (*NotifyResponse, error) {
	req := map[string]string{"message": message}

	data, err := n.c.postJSON(ctx, "/api/v1/notify", req)
	if err != nil {
		return nil, err
	}

	var resp NotifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse notify response: %w", err)
	}

	return &resp, nil
}
