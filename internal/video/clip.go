// Package video records a short confirmation clip from the selected
// camera before streaming starts.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/mikeyg42/luxcam/internal/capture"
)

type ClipConfig struct {
	OutputDir string
	Duration  time.Duration
}

// ClipRecorder writes mp4 clips. It borrows an already-open device for
// the duration of Record and never takes ownership of the handle.
type ClipRecorder struct {
	config *ClipConfig
	log    *zap.Logger
}

func NewClipRecorder(config *ClipConfig, log *zap.Logger) *ClipRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClipRecorder{config: config, log: log.Named("clip")}
}

// Record captures frames for roughly the configured duration and
// returns the path of the written file. The first frame is read before
// the writer opens so frame geometry is known even when the driver
// reports nothing useful.
func (r *ClipRecorder) Record(ctx context.Context, dev capture.Device, index int) (string, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	if !dev.Read(&frame) || frame.Empty() {
		return "", fmt.Errorf("device %d opened but produced no frame: %w", index, capture.ErrDeviceUnavailable)
	}

	props := dev.Properties()
	width, height := props.Width, props.Height
	if width <= 0 || height <= 0 {
		width, height = frame.Cols(), frame.Rows()
	}
	fps := props.FPS
	if fps < 1 {
		fps = 30.0
	}

	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create clip directory: %w", err)
	}
	path := filepath.Join(r.config.OutputDir, fmt.Sprintf("luxcam_%d_%s.mp4", index, uuid.NewString()))

	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return "", fmt.Errorf("open video writer: %w", err)
	}
	defer writer.Close()
	if !writer.IsOpened() {
		return "", fmt.Errorf("video writer did not open for %s", path)
	}

	if err := writer.Write(frame); err != nil {
		return path, fmt.Errorf("write clip frame: %w", err)
	}

	deadline := time.Now().Add(r.config.Duration)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		if !dev.Read(&frame) {
			break
		}
		if frame.Empty() {
			continue
		}
		if err := writer.Write(frame); err != nil {
			return path, fmt.Errorf("write clip frame: %w", err)
		}
	}

	r.log.Info("clip recorded", zap.String("path", path), zap.Int("index", index))
	return path, nil
}
