package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// VideoSource opens real capture devices through OpenCV.
type VideoSource struct{}

// NewVideoSource returns a Source backed by gocv.VideoCapture.
func NewVideoSource() *VideoSource {
	return &VideoSource{}
}

func (s *VideoSource) Open(index int) (Device, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", index, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("capture device %d: %w", index, ErrDeviceUnavailable)
	}
	return &videoDevice{cap: vc}, nil
}

type videoDevice struct {
	cap *gocv.VideoCapture
}

func (d *videoDevice) Read(dst *gocv.Mat) bool {
	return d.cap.Read(dst)
}

func (d *videoDevice) Properties() Properties {
	return Properties{
		Width:  int(d.cap.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(d.cap.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    d.cap.Get(gocv.VideoCaptureFPS),
	}
}

func (d *videoDevice) Close() error {
	return d.cap.Close()
}
