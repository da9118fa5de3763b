// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"bytes"
	"context"
	"image/png"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/kaleido/internal/api"
	"github.com/wingedpig/kaleido/internal/capture"
	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/document"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/gradient"
	"github.com/wingedpig/kaleido/internal/host"
	"github.com/wingedpig/kaleido/internal/session"
	"github.com/wingedpig/kaleido/internal/storage"
	"github.com/wingedpig/kaleido/pkg/client"
)

// testServer wires the full pipeline: surface, capture controller, in-process
// channel, host router, document, and the API server, the same topology the
// app assembles.
type testServer struct {
	url string
	doc *document.Document
	bus events.Bus
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	doc := document.New(document.Config{VideoSupported: true})
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	surface, err := gradient.NewSurface(32, 32, session.DefaultColors)
	require.NoError(t, err)

	newHostRouter := func(sender channel.Sender) *host.Router {
		mat := host.NewMaterializer(doc, bus)
		ras := host.NewRasterizer(doc, bus)
		return host.NewRouter(store, mat, ras, sender, bus, host.RouterConfig{})
	}

	// Captures dispatched by the controller land on the host router through
	// the in-process pipe.
	pipe := channel.NewPipe(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go newHostRouter(pipe.Host()).Serve(ctx, pipe.Host())

	controller := capture.NewController(surface, pipe.Studio(), bus, capture.Config{FrameRate: 10})
	sess, err := session.NewManager(surface, controller, nil, session.DefaultState())
	require.NoError(t, err)

	router := api.NewRouter(api.Dependencies{
		EventBus:      bus,
		Document:      doc,
		Controller:    controller,
		Session:       sess,
		NewHostRouter: newHostRouter,
		Version:       "e2e",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { pipe.Close() })

	return &testServer{url: srv.URL, doc: doc, bus: bus}
}

// TestServerStartup verifies that the API server constructs correctly.
func TestServerStartup(t *testing.T) {
	deps := api.Dependencies{EventBus: events.NewMemoryBus(events.MemoryBusConfig{})}
	server := api.NewServer(api.ServerConfig{Host: "127.0.0.1", Port: 0}, deps)
	require.NotNil(t, server)
	require.NotNil(t, server.Router())
}

// TestCaptureToDocument runs the whole pipeline: pause the animation, trigger
// a capture over the API, and watch the still materialize as a document node.
func TestCaptureToDocument(t *testing.T) {
	srv := startServer(t)
	c := client.New(srv.url)
	ctx := context.Background()

	// Freeze the surface so the trigger takes the still path.
	paused := false
	_, err := c.Settings.Update(ctx, client.SettingsUpdate{Playing: &paused})
	require.NoError(t, err)

	status, err := c.Capture.Trigger(ctx, "")
	require.NoError(t, err)
	assert.True(t, status.Recording)

	require.Eventually(t, func() bool {
		nodes, err := c.Document.Nodes(ctx)
		return err == nil && len(nodes) == 1
	}, 5*time.Second, 20*time.Millisecond)

	nodes, err := c.Document.Nodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kaleidoscope", nodes[0].Name)
	require.NotEmpty(t, nodes[0].Fills)
	assert.Equal(t, "image", nodes[0].Fills[0].Kind)

	// The new node is selected.
	sel, err := c.Document.Selection(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{nodes[0].ID}, sel)
}

// TestCaptureConflict verifies a second trigger during a capture is rejected
// without disturbing the first.
func TestCaptureConflict(t *testing.T) {
	srv := startServer(t)
	c := client.New(srv.url)
	ctx := context.Background()

	// A playing surface records for the full duration, so the second trigger
	// lands while the first is still in flight.
	status, err := c.Capture.Trigger(ctx, "15s")
	require.NoError(t, err)
	assert.True(t, status.Recording)

	_, err = c.Capture.Trigger(ctx, "")
	require.Error(t, err)
	apiErr, ok := err.(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, "conflict", apiErr.Code)
}

// TestSelectionExport exports a selection over the channel WebSocket and
// checks the PNG comes back intact.
func TestSelectionExport(t *testing.T) {
	srv := startServer(t)
	c := client.New(srv.url)
	ctx := context.Background()

	node := srv.doc.CreateRectangle()
	node.W, node.H = 40, 20
	_, err := c.Document.SetSelection(ctx, []string{node.ID})
	require.NoError(t, err)

	ch, err := client.DialChannel(ctx, srv.url)
	require.NoError(t, err)
	defer ch.Close()

	data, err := ch.ExportSelection(ctx)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	// The export worked on scratch clones; the original node survives.
	nodes, err := c.Document.Nodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

// TestSelectionExportEmpty verifies the no-selection reply.
func TestSelectionExportEmpty(t *testing.T) {
	srv := startServer(t)

	ctx := context.Background()
	ch, err := client.DialChannel(ctx, srv.url)
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.ExportSelection(ctx)
	assert.ErrorIs(t, err, client.ErrNoSelection)
}

// TestStorageRoundTrip persists and reads back a record over the channel.
func TestStorageRoundTrip(t *testing.T) {
	srv := startServer(t)

	ctx := context.Background()
	ch, err := client.DialChannel(ctx, srv.url)
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SaveStorage("cache", []byte(`{"colors":["#111111","#222222"],"vidLength":30000,"playing":false}`)))

	value, err := ch.LoadStorage(ctx, "cache")
	require.NoError(t, err)
	assert.Contains(t, string(value), `"vidLength":30000`)

	// Missing keys come back empty, the first-run signal.
	value, err = ch.LoadStorage(ctx, "unset")
	require.NoError(t, err)
	assert.Empty(t, value)
}

// TestNotifyFlow sends a notification and finds it in the event history.
func TestNotifyFlow(t *testing.T) {
	srv := startServer(t)
	c := client.New(srv.url)
	ctx := context.Background()

	_, err := c.Notify.Send(ctx, "render finished")
	require.NoError(t, err)

	evs, err := c.Events.List(ctx, &client.ListOptions{Types: []string{events.EventNotifyUser}})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "render finished", evs[0].Payload["message"])
}

// TestSettingsGating verifies settings are locked while recording.
func TestSettingsGating(t *testing.T) {
	srv := startServer(t)
	c := client.New(srv.url)
	ctx := context.Background()

	// A playing surface records for the full duration, so the window stays
	// open long enough to probe.
	_, err := c.Capture.Trigger(ctx, "15s")
	require.NoError(t, err)

	dark := true
	_, err = c.Settings.Update(ctx, client.SettingsUpdate{DarkTop: &dark})
	require.Error(t, err)
	apiErr, ok := err.(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, "conflict", apiErr.Code)
}
