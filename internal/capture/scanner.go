package capture

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// defaultFPS replaces frame rates the driver reports as zero, negative
// or absurd. 30 is what most UVC devices actually run at.
const defaultFPS = 30.0

// Scanner probes a bounded range of device indices and reports which
// ones deliver frames. Probing transiently opens and closes every
// index; no handle stays open past its probe.
type Scanner struct {
	source       Source
	probeTimeout time.Duration
	log          *zap.Logger
}

func NewScanner(source Source, probeTimeout time.Duration, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{source: source, probeTimeout: probeTimeout, log: log.Named("scan")}
}

// Scan probes indices 0..maxIndex-1 in increasing order and returns a
// descriptor for each device that opened and produced a frame. Indices
// with no device are expected and skipped silently. An empty result is
// not an error; the caller decides how to react.
func (s *Scanner) Scan(ctx context.Context, maxIndex int) []Descriptor {
	var found []Descriptor
	for i := 0; i < maxIndex; i++ {
		if ctx.Err() != nil {
			s.log.Info("scan canceled", zap.Int("nextIndex", i))
			break
		}
		desc, ok := s.probe(ctx, i)
		if !ok {
			continue
		}
		s.log.Info("device found",
			zap.Int("index", desc.Index),
			zap.Int("width", desc.Width),
			zap.Int("height", desc.Height),
			zap.Float64("fps", desc.FPS))
		found = append(found, desc)
	}
	return found
}

// probe opens one index, confirms it can deliver a frame, records its
// properties and releases it. The attempt is bounded: a device that
// blocks past probeTimeout is abandoned (the goroutine releases the
// handle whenever the driver call finally returns) and the index is
// treated as unusable.
func (s *Scanner) probe(ctx context.Context, index int) (Descriptor, bool) {
	done := make(chan Descriptor, 1)

	go func() {
		dev, err := s.source.Open(index)
		if err != nil {
			close(done)
			return
		}

		frame := gocv.NewMat()
		ok := dev.Read(&frame) && !frame.Empty()
		props := dev.Properties()

		// Release before signaling: by the time the caller unblocks,
		// this probe must not hold the device.
		_ = frame.Close()
		_ = dev.Close()

		if !ok {
			s.log.Debug("device opened but produced no frame", zap.Int("index", index))
			close(done)
			return
		}
		done <- Descriptor{
			Index:  index,
			Width:  props.Width,
			Height: props.Height,
			FPS:    normalizeFPS(props.FPS),
		}
	}()

	timer := time.NewTimer(s.probeTimeout)
	defer timer.Stop()

	select {
	case desc, ok := <-done:
		return desc, ok
	case <-timer.C:
		s.log.Warn("probe timed out", zap.Int("index", index), zap.Duration("timeout", s.probeTimeout))
		return Descriptor{}, false
	case <-ctx.Done():
		return Descriptor{}, false
	}
}

func normalizeFPS(fps float64) float64 {
	if math.IsNaN(fps) || fps < 1 || fps > 1000 {
		return defaultFPS
	}
	return fps
}
