// Package display renders preview frames in an OpenCV window and maps
// key presses to selection events.
package display

import (
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/mikeyg42/luxcam/internal/selection"
)

// Key bindings, matching what the preview overlay tells the operator.
const (
	keyQuit   = 'q'
	keyNext   = 'n'
	keySelect = 's'
)

var overlayColor = color.RGBA{R: 0, G: 255, B: 0}

// Window is a gocv-backed Display.
type Window struct {
	win *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Render overlays the label onto the frame and shows it. The frame is
// drawn on in place; callers reuse the Mat for the next read anyway.
func (w *Window) Render(frame gocv.Mat, label string) {
	gocv.PutText(&frame, label, image.Pt(10, 30), gocv.FontHersheySimplex, 1.0, overlayColor, 2)
	w.win.IMShow(frame)
}

// Poll pumps the window event loop for up to timeout and reports any
// bound key pressed in that span.
func (w *Window) Poll(timeout time.Duration) selection.Event {
	ms := int(timeout.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	key := w.win.WaitKey(ms)
	if key < 0 {
		return selection.EventNone
	}
	switch key & 0xFF {
	case keyQuit:
		return selection.EventQuit
	case keyNext:
		return selection.EventNext
	case keySelect:
		return selection.EventSelect
	default:
		return selection.EventNone
	}
}

func (w *Window) Close() error {
	return w.win.Close()
}
