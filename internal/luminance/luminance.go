// Package luminance reduces capture frames to a single normalized
// brightness scalar: mean gray level over all pixels, scaled into
// [0, 1]. That mean is the entire bright-or-dark signal; no
// thresholding or classification happens here.
package luminance

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/mikeyg42/luxcam/internal/capture"
)

// Sample is one brightness measurement taken from one frame.
type Sample struct {
	Value float64
	At    time.Time
}

// FrameBrightness computes the normalized mean luminance of a single
// frame. Multi-channel frames are converted to grayscale first.
func FrameBrightness(frame gocv.Mat) float64 {
	if frame.Channels() > 1 {
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
		return gray.Mean().Val1 / 255.0
	}
	return frame.Mean().Val1 / 255.0
}

// Stream is a lazy, unbounded, non-restartable sequence of brightness
// samples from one device. The Stream owns the device handle: it is
// released when the sequence ends, on Close, and on nothing else.
type Stream struct {
	dev    capture.Device
	frame  gocv.Mat
	gray   gocv.Mat
	closed bool
}

// NewStream adopts an already-open device. Ownership transfers to the
// Stream; the previous owner must not touch the handle afterwards.
func NewStream(dev capture.Device) *Stream {
	return &Stream{
		dev:   dev,
		frame: gocv.NewMat(),
		gray:  gocv.NewMat(),
	}
}

// Open opens the device at index and returns a Stream owning it. It
// fails fast when the device cannot be opened.
func Open(source capture.Source, index int) (*Stream, error) {
	dev, err := source.Open(index)
	if err != nil {
		return nil, fmt.Errorf("open device %d for sampling: %w", index, err)
	}
	return NewStream(dev), nil
}

// maxEmptyReads bounds how many consecutive empty frames Next skips
// before treating the device as dead. Cameras warming up deliver a few
// empties; one that never delivers pixels must not spin the CPU.
const maxEmptyReads = 30

// Next pulls one frame and reduces it. A read failure means the frame
// source is exhausted or disconnected: the sequence ends, the device is
// released, and Next reports false. There are no per-sample errors.
func (s *Stream) Next() (Sample, bool) {
	if s.closed {
		return Sample{}, false
	}
	for empty := 0; empty <= maxEmptyReads; empty++ {
		if !s.dev.Read(&s.frame) {
			break
		}
		if s.frame.Empty() {
			continue
		}
		return Sample{Value: s.brightness(), At: time.Now()}, true
	}
	_ = s.Close()
	return Sample{}, false
}

func (s *Stream) brightness() float64 {
	if s.frame.Channels() > 1 {
		gocv.CvtColor(s.frame, &s.gray, gocv.ColorBGRToGray)
		return s.gray.Mean().Val1 / 255.0
	}
	return s.frame.Mean().Val1 / 255.0
}

// Close releases the device and scratch buffers. Safe to call when the
// consumer abandons the stream early, and safe to call twice.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.dev.Close()
	_ = s.frame.Close()
	_ = s.gray.Close()
	return err
}
