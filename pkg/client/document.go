// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// DocumentClient provides read access to the host document.
//
// Access this client through [Client.Document]:
//
//	nodes, err := client.Document.Nodes(ctx)
type DocumentClient struct {
	c *Client
}

// Nodes returns the document's root nodes in page order.
func (d *DocumentClient) Nodes(ctx context.Context) ([]Node, error) {
	data, err := d.c.get(ctx, "/api/v1/document/nodes")
	if err != nil {
		return nil, err
	}

	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse nodes: %w", err)
	}

	return nodes, nil
}

// Node returns a single root node by ID.
func (d *DocumentClient) Node(ctx context.Context, id string) (*Node, error) {
	data, err := d.c.get(ctx, "/api/v1/document/nodes/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse node: %w", err)
	}

	return &node, nil
}

// selectionResponse is the wire shape of selection replies.
type selectionResponse struct {
	Selection []string `json:"selection"`
}

// Selection returns the IDs of the currently selected nodes.
func (d *DocumentClient) Selection(ctx context.Context) ([]string, error) {
	data, err := d.c.get(ctx, "/api/v1/document/selection")
	if err != nil {
		return nil, err
	}

	var resp selectionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse selection: %w", err)
	}

	return resp.Selection, nil
}

// SetSelection replaces the selection with the given node IDs.
func (d *DocumentClient) SetSelection(ctx context.Context, ids []string) ([]string, error) {
	data, err := d.c.putJSON(ctx, "/api/v1/document/selection", map[string][]string{"ids": ids})
	if err != nil {
		return nil, err
	}

	var resp selectionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse selection: %w", err)
	}

	return resp.Selection, nil
}

// Export rasterizes a root node and returns the PNG bytes.
func (d *DocumentClient) Export(ctx context.Context, id string) ([]byte, error) {
	data, err := d.c.get(ctx, "/api/v1/document/nodes/"+url.PathEscape(id)+"/export")
	if err != nil {
		return nil, err
	}
	return data, nil
}
