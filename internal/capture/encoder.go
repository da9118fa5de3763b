// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Encoder turns a stream of frames into one finalized video blob. Frames are
// buffered while recording; Finalize compresses and flushes them into a
// single byte payload.
type Encoder interface {
	// Start prepares the encoder for a stream of w x h frames at the given
	// frame rate.
	Start(w, h, frameRate int) error

	// WriteFrame appends one frame to the stream.
	WriteFrame(frame *image.RGBA) error

	// Finalize flushes all frames into one blob and returns it with its
	// MIME type. The encoder cannot be reused afterwards.
	Finalize() ([]byte, string, error)
}

const mjpegBoundary = "kaleidoframe"

// MJPEGEncoder encodes frames as a motion-JPEG multipart stream. Codec choice
// is deliberately simple: the capture pipeline only needs a finite
// video-typed payload, and MJPEG needs no external codec.
//
// Frames are held raw until Finalize so the recording loop keeps its cadence;
// JPEG compression runs across all frames in parallel at the end.
type MJPEGEncoder struct {
	Quality int // JPEG quality 1-100; 0 means jpeg.DefaultQuality

	started   bool
	finalized bool
	frameRate int
	frames    []*image.RGBA
}

// Start implements Encoder.
func (e *MJPEGEncoder) Start(w, h, frameRate int) error {
	if e.started {
		return fmt.Errorf("encoder already started")
	}
	if w <= 0 || h <= 0 || frameRate <= 0 {
		return fmt.Errorf("invalid encoder parameters %dx%d@%d", w, h, frameRate)
	}
	e.started = true
	e.frameRate = frameRate
	return nil
}

// WriteFrame implements Encoder. The frame is retained until Finalize; the
// caller must not reuse its pixel buffer.
func (e *MJPEGEncoder) WriteFrame(frame *image.RGBA) error {
	if !e.started || e.finalized {
		return fmt.Errorf("encoder not recording")
	}
	e.frames = append(e.frames, frame)
	return nil
}

// Finalize implements Encoder.
func (e *MJPEGEncoder) Finalize() ([]byte, string, error) {
	if !e.started {
		return nil, "", fmt.Errorf("encoder never started")
	}
	if e.finalized {
		return nil, "", fmt.Errorf("encoder already finalized")
	}
	if len(e.frames) == 0 {
		return nil, "", fmt.Errorf("no frames recorded")
	}
	e.finalized = true

	quality := e.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}

	// Compress frames in parallel; chunk order follows frame order.
	chunks := make([][]byte, len(e.frames))
	var g errgroup.Group
	for i, frame := range e.frames {
		i, frame := i, frame
		g.Go(func() error {
			var img bytes.Buffer
			if err := jpeg.Encode(&img, frame, &jpeg.Options{Quality: quality}); err != nil {
				return fmt.Errorf("encode frame %d: %w", i, err)
			}

			var buf bytes.Buffer
			fmt.Fprintf(&buf, "--%s\r\nContent-Type: image/jpeg\r\n", mjpegBoundary)
			fmt.Fprintf(&buf, "Content-Length: %s\r\n\r\n", strconv.Itoa(img.Len()))
			buf.Write(img.Bytes())
			buf.WriteString("\r\n")
			chunks[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	e.frames = nil

	var blob bytes.Buffer
	for _, chunk := range chunks {
		blob.Write(chunk)
	}
	fmt.Fprintf(&blob, "--%s--\r\n", mjpegBoundary)

	return blob.Bytes(), "video/x-motion-jpeg", nil
}

// FrameCount reports how many frames have been appended. Used by tests and
// diagnostics; not part of the Encoder contract.
func (e *MJPEGEncoder) FrameCount() int {
	return len(e.frames)
}

// IsMJPEG reports whether data looks like a motion-JPEG stream produced by
// MJPEGEncoder. The host uses this to validate incoming video payloads.
func IsMJPEG(data []byte) bool {
	return bytes.HasPrefix(data, []byte("--"+mjpegBoundary+"\r\n"))
}
