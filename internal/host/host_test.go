// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/kaleido/internal/channel"
	"github.com/wingedpig/kaleido/internal/document"
	"github.com/wingedpig/kaleido/internal/events"
	"github.com/wingedpig/kaleido/internal/storage"
)

// replySender records envelopes the host sends back to the studio.
type replySender struct {
	mu   sync.Mutex
	sent []channel.Envelope
}

func (s *replySender) Send(env channel.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, env)
	return nil
}

func (s *replySender) envelopes() []channel.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]channel.Envelope(nil), s.sent...)
}

// placeFailCanvas wraps a document and fails the next n placements.
type placeFailCanvas struct {
	*document.Document
	fails int
}

func (c *placeFailCanvas) ScaleAndPosition(id string, scale, referenceDimension float64) error {
	if c.fails > 0 {
		c.fails--
		return fmt.Errorf("placement backend unavailable")
	}
	return c.Document.ScaleAndPosition(id, scale, referenceDimension)
}

// exportFailCanvas wraps a document and fails every export.
type exportFailCanvas struct {
	*document.Document
}

func (c *exportFailCanvas) Export(id string) ([]byte, error) {
	return nil, fmt.Errorf("export backend unavailable")
}

func pngURI(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return channel.EncodeDataURI(channel.MimePNG, buf.Bytes())
}

func videoURI() string {
	return channel.EncodeDataURI(channel.MimeMJPEG, []byte("--kaleidoframe\r\nContent-Type: image/jpeg\r\n\r\n"))
}

func notifications(t *testing.T, bus events.Bus) []string {
	t.Helper()
	evs, err := bus.History(events.Filter{Types: []string{events.EventNotifyUser}})
	require.NoError(t, err)
	var msgs []string
	for _, ev := range evs {
		msgs = append(msgs, ev.Payload["message"].(string))
	}
	return msgs
}

func TestMaterializer_VideoTier(t *testing.T) {
	doc := document.New(document.Config{VideoSupported: true})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(doc, bus)

	node, err := mat.Materialize(context.Background(), Payload{
		Video: videoURI(),
		Image: pngURI(t),
	}, NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 604})
	require.NoError(t, err)

	require.Len(t, doc.Nodes(), 1, "exactly one node materializes")
	assert.Equal(t, "Kaleidoscope", node.Name)
	require.Len(t, node.Fills, 1)
	assert.Equal(t, document.PaintVideo, node.Fills[0].Kind)
	assert.InDelta(t, 604.0, node.H, 0.001)
	assert.Equal(t, []string{node.ID}, doc.Selection())

	assert.Empty(t, notifications(t, bus), "no degradation notice on the video tier")
}

func TestMaterializer_FallsBackToImage(t *testing.T) {
	doc := document.New(document.Config{VideoSupported: false})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(doc, bus)

	node, err := mat.Materialize(context.Background(), Payload{
		Video: videoURI(),
		Image: pngURI(t),
	}, NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 604})
	require.NoError(t, err)

	// Exactly one node, image-backed, with exactly one degradation notice.
	require.Len(t, doc.Nodes(), 1)
	require.Len(t, node.Fills, 1)
	assert.Equal(t, document.PaintImage, node.Fills[0].Kind)
	assert.Equal(t, []string{"A pro plan is required for video"}, notifications(t, bus))

	degraded, err := bus.History(events.Filter{Types: []string{events.EventAssetDegraded}})
	require.NoError(t, err)
	assert.Len(t, degraded, 1)
}

func TestMaterializer_ImageOnlyPayload(t *testing.T) {
	doc := document.New(document.Config{VideoSupported: false})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(doc, bus)

	node, err := mat.Materialize(context.Background(), Payload{Image: pngURI(t)},
		NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 1024})
	require.NoError(t, err)

	assert.Equal(t, document.PaintImage, node.Fills[0].Kind)
	assert.InDelta(t, 1024.0, node.H, 0.001)
	assert.Empty(t, notifications(t, bus), "image-only requests never degrade")
}

func TestMaterializer_PlaceFailureFallsBack(t *testing.T) {
	doc := document.New(document.Config{VideoSupported: true})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(&placeFailCanvas{Document: doc, fails: 1}, bus)

	node, err := mat.Materialize(context.Background(), Payload{
		Video: videoURI(),
		Image: pngURI(t),
	}, NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 604})
	require.NoError(t, err)

	// The video node that could not be placed is gone; only the image
	// fallback survives, with the usual degradation notice.
	require.Len(t, doc.Nodes(), 1)
	require.Len(t, node.Fills, 1)
	assert.Equal(t, document.PaintImage, node.Fills[0].Kind)
	assert.Equal(t, []string{"A pro plan is required for video"}, notifications(t, bus))
}

func TestMaterializer_PlaceFailureEverywhere(t *testing.T) {
	doc := document.New(document.Config{VideoSupported: true})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(&placeFailCanvas{Document: doc, fails: 2}, bus)

	_, err := mat.Materialize(context.Background(), Payload{
		Video: videoURI(),
		Image: pngURI(t),
	}, NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 604})
	assert.Error(t, err)
	assert.Empty(t, doc.Nodes(), "no orphaned nodes after a failed materialization")
}

func TestMaterializer_AllAttemptsFail(t *testing.T) {
	doc := document.New(document.Config{})
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	mat := NewMaterializer(doc, bus)

	_, err := mat.Materialize(context.Background(), Payload{
		Video: videoURI(),
		Image: "data:image/png;base64,!!!not base64!!!",
	}, NodeConfig{NodeName: "Kaleidoscope", Scale: 1, ReferenceDimension: 604})
	assert.Error(t, err)
	assert.Empty(t, doc.Nodes(), "no node survives a failed materialization")
}

func TestRasterizer_EmptySelection(t *testing.T) {
	doc := document.New(document.Config{})
	doc.CreateRectangle() // present but unselected
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	ras := NewRasterizer(doc, bus)

	_, err := ras.Rasterize(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	assert.Equal(t, []string{"Select at least one node"}, notifications(t, bus))
	assert.Len(t, doc.Nodes(), 1, "no scratch nodes created")
}

func TestRasterizer_SingleNode(t *testing.T) {
	doc := document.New(document.Config{})
	node := doc.CreateRectangle()
	node.X, node.Y = 50, 60
	node.W, node.H = 20, 10
	node.Fills = []document.Paint{{Kind: document.PaintSolid, Color: color.NRGBA{G: 255, A: 255}}}
	require.NoError(t, doc.SetSelection([]string{node.ID}))
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	ras := NewRasterizer(doc, bus)

	data, err := ras.Rasterize(context.Background())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())

	// Original untouched, scratch clone gone.
	assert.Len(t, doc.Nodes(), 1)
	assert.Equal(t, 50.0, node.X)
	assert.Equal(t, []string{node.ID}, doc.Selection())
}

func TestRasterizer_MultiNodeGroupsAndCleansUp(t *testing.T) {
	doc := document.New(document.Config{})
	var ids []string
	for i := 0; i < 3; i++ {
		n := doc.CreateRectangle()
		n.X = float64(i) * 100
		n.W, n.H = 100, 100
		n.Fills = []document.Paint{{Kind: document.PaintSolid, Color: color.NRGBA{B: 255, A: 255}}}
		ids = append(ids, n.ID)
	}
	require.NoError(t, doc.SetSelection(ids))
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	ras := NewRasterizer(doc, bus)

	data, err := ras.Rasterize(context.Background())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx(), "composite spans the selection bounding box")

	assert.Len(t, doc.Nodes(), 3, "only the originals remain")
	assert.Equal(t, ids, doc.Selection())
}

func TestRasterizer_CleansUpOnFailure(t *testing.T) {
	doc := document.New(document.Config{})
	var ids []string
	for i := 0; i < 3; i++ {
		n := doc.CreateRectangle()
		ids = append(ids, n.ID)
	}
	require.NoError(t, doc.SetSelection(ids))
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	ras := NewRasterizer(&exportFailCanvas{doc}, bus)

	_, err := ras.Rasterize(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSelection)

	assert.Equal(t, []string{"Error rasterizing selection"}, notifications(t, bus))
	assert.Len(t, doc.Nodes(), 3, "scratch group removed despite the failure")
	assert.Equal(t, ids, doc.Selection())
}

func newTestRouter(t *testing.T, videoTier bool) (*Router, *document.Document, *storage.Store, *replySender, events.Bus) {
	t.Helper()
	doc := document.New(document.Config{VideoSupported: videoTier})
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	bus := events.NewMemoryBus(events.MemoryBusConfig{})
	sender := &replySender{}
	router := NewRouter(store, NewMaterializer(doc, bus), NewRasterizer(doc, bus), sender, bus, RouterConfig{})
	return router, doc, store, sender, bus
}

func TestRouter_StorageRoundTrip(t *testing.T) {
	router, _, _, sender, _ := newTestRouter(t, false)
	ctx := context.Background()

	record := json.RawMessage(`{"colors":["#FF00FF","#00FFFF"],"vidLength":15000}`)
	require.NoError(t, router.Handle(ctx, channel.Envelope{
		Type:  channel.TypeSaveStorage,
		Key:   "cache",
		Value: record,
	}))

	require.NoError(t, router.Handle(ctx, channel.Envelope{
		Type: channel.TypeLoadStorage,
		Key:  "cache",
	}))

	replies := sender.envelopes()
	require.Len(t, replies, 1)
	assert.Equal(t, channel.TypeStorageLoaded, replies[0].Type)
	assert.Equal(t, "cache", replies[0].Key)
	assert.JSONEq(t, string(record), string(replies[0].Value))
}

func TestRouter_LoadMissingKey(t *testing.T) {
	router, _, _, sender, _ := newTestRouter(t, false)

	require.NoError(t, router.Handle(context.Background(), channel.Envelope{
		Type: channel.TypeLoadStorage,
		Key:  "cache",
	}))

	replies := sender.envelopes()
	require.Len(t, replies, 1)
	assert.Equal(t, channel.TypeStorageLoaded, replies[0].Type)
	assert.Nil(t, replies[0].Value, "absent key signals first run")
}

func TestRouter_MaterializeUsesCallerRefDim(t *testing.T) {
	router, doc, _, _, _ := newTestRouter(t, false)
	ctx := context.Background()

	require.NoError(t, router.Handle(ctx, channel.Envelope{
		Type:  channel.TypeAddGradientVideo,
		Video: videoURI(),
		Image: pngURI(t),
	}))
	require.NoError(t, router.Handle(ctx, channel.Envelope{
		Type:  channel.TypeAddGradientImage,
		Image: pngURI(t),
	}))

	nodes := doc.Nodes()
	require.Len(t, nodes, 2)
	assert.InDelta(t, 604.0, nodes[0].H, 0.001, "video path sizes against the surface edge")
	assert.InDelta(t, 1024.0, nodes[1].H, 0.001, "image path sizes against its export resolution")
}

func TestRouter_GetSelectionImage(t *testing.T) {
	router, doc, _, sender, _ := newTestRouter(t, false)
	ctx := context.Background()

	// Empty selection replies no-selection and creates no scratch nodes.
	require.NoError(t, router.Handle(ctx, channel.Envelope{Type: channel.TypeGetSelectionImage}))
	replies := sender.envelopes()
	require.Len(t, replies, 1)
	assert.Equal(t, channel.TypeNoSelection, replies[0].Type)
	assert.Empty(t, doc.Nodes())

	node := doc.CreateRectangle()
	node.Fills = []document.Paint{{Kind: document.PaintSolid, Color: color.NRGBA{R: 255, A: 255}}}
	require.NoError(t, doc.SetSelection([]string{node.ID}))

	require.NoError(t, router.Handle(ctx, channel.Envelope{Type: channel.TypeGetSelectionImage}))
	replies = sender.envelopes()
	require.Len(t, replies, 2)
	assert.Equal(t, channel.TypeSelectionImage, replies[1].Type)

	header, data, err := channel.DecodeDataURI(replies[1].Image)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64", header)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestRouter_UnknownTypeDropped(t *testing.T) {
	router, doc, _, sender, _ := newTestRouter(t, false)

	err := router.Handle(context.Background(), channel.Envelope{Type: "resize-window"})
	assert.NoError(t, err, "unknown types are dropped, not errors")
	assert.Empty(t, sender.envelopes())
	assert.Empty(t, doc.Nodes())
}

func TestRouter_ServeDrainsEndpoint(t *testing.T) {
	router, doc, _, _, _ := newTestRouter(t, false)

	pipe := channel.NewPipe(8)
	studio := pipe.Studio()
	require.NoError(t, studio.Send(channel.Envelope{
		Type:  channel.TypeAddGradientImage,
		Image: pngURI(t),
	}))
	pipe.Close()

	require.NoError(t, router.Serve(context.Background(), pipe.Host()))
	assert.Len(t, doc.Nodes(), 1)
}
