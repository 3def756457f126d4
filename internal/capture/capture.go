// Package capture abstracts video capture devices and discovers which
// candidate indices map to hardware that can actually deliver frames.
package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

var (
	// ErrNoDevices is returned by callers of Scan when an empty scan
	// result is unacceptable to them; Scan itself never fails.
	ErrNoDevices = errors.New("no usable capture devices found")

	// ErrDeviceUnavailable indicates an open or read failure on a device
	// that was expected to be usable.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// Properties describes the active mode of an open device.
type Properties struct {
	Width  int
	Height int
	FPS    float64
}

// Device is an open capture handle. Exactly one component owns a Device
// at a time; the owner is responsible for Close.
type Device interface {
	// Read fills dst with the next frame. A false return means the
	// device produced no frame (disconnected, busy, or end of stream).
	Read(dst *gocv.Mat) bool
	Properties() Properties
	Close() error
}

// Source opens devices by index.
type Source interface {
	Open(index int) (Device, error)
}

// Descriptor records one discovered, working device. Produced by a scan
// pass and discarded when the pass ends.
type Descriptor struct {
	Index  int
	Width  int
	Height int
	FPS    float64
}
