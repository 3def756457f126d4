package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/mikeyg42/luxcam/internal/capture"
)

type fakeDevice struct {
	index  int
	frames int // -1 means unlimited
	closed bool
}

func (d *fakeDevice) Read(dst *gocv.Mat) bool {
	if d.frames == 0 {
		return false
	}
	if d.frames > 0 {
		d.frames--
	}
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC1)
	defer m.Close()
	m.CopyTo(dst)
	return true
}

func (d *fakeDevice) Properties() capture.Properties {
	return capture.Properties{Width: 8, Height: 8, FPS: 30}
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// fakeSource hands out a fresh device per Open so the test can check
// which handles were released.
type fakeSource struct {
	opened []*fakeDevice
}

func (s *fakeSource) Open(index int) (capture.Device, error) {
	d := &fakeDevice{index: index, frames: -1}
	s.opened = append(s.opened, d)
	return d, nil
}

// scriptDisplay replays a fixed event sequence, one event per poll, and
// quits when the script runs out.
type scriptDisplay struct {
	events []Event
	pos    int
	labels []string
}

func (d *scriptDisplay) Render(frame gocv.Mat, label string) {
	d.labels = append(d.labels, label)
}

func (d *scriptDisplay) Poll(timeout time.Duration) Event {
	if d.pos >= len(d.events) {
		return EventQuit
	}
	e := d.events[d.pos]
	d.pos++
	return e
}

func descriptors(indices ...int) []capture.Descriptor {
	out := make([]capture.Descriptor, 0, len(indices))
	for _, i := range indices {
		out = append(out, capture.Descriptor{Index: i, Width: 640, Height: 480, FPS: 30})
	}
	return out
}

func TestAdvanceWrapsCursor(t *testing.T) {
	testCases := []struct {
		advances int
		want     int // expected selected index among candidates [0 1 2]
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 0},
		{7, 1},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d advances", tc.advances), func(t *testing.T) {
			events := make([]Event, 0, tc.advances+1)
			for i := 0; i < tc.advances; i++ {
				events = append(events, EventNext)
			}
			events = append(events, EventSelect)

			src := &fakeSource{}
			ctl, err := NewController(src, &scriptDisplay{events: events}, descriptors(0, 1, 2), 0, time.Millisecond, nil)
			if err != nil {
				t.Fatalf("NewController failed: %v", err)
			}

			res, err := ctl.Run(context.Background())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if !res.Selected {
				t.Fatal("expected a selection")
			}
			if res.Index != tc.want {
				t.Errorf("expected index %d after %d advances, got %d", tc.want, tc.advances, res.Index)
			}
			if got := ctl.Cursor(); got != tc.advances%3 {
				t.Errorf("expected cursor %d, got %d", tc.advances%3, got)
			}
		})
	}
}

func TestConfirmHandsOverOpenDevice(t *testing.T) {
	src := &fakeSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventSelect}}, descriptors(2), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	res, err := ctl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Selected || res.Index != 2 {
		t.Fatalf("expected selection of index 2, got %+v", res)
	}
	if res.Device == nil {
		t.Fatal("expected the open device to be handed over")
	}
	if src.opened[0].closed {
		t.Error("selected device must stay open across the hand-off")
	}
}

func TestQuitReleasesDevice(t *testing.T) {
	src := &fakeSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventQuit}}, descriptors(0), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	res, err := ctl.Run(context.Background())
	if err != nil {
		t.Fatalf("quit is not an error, got: %v", err)
	}
	if res.Selected {
		t.Fatal("quit must not produce a selection")
	}
	if !src.opened[0].closed {
		t.Error("device left open after quit")
	}
}

func TestAdvanceReleasesPreviousDevice(t *testing.T) {
	src := &fakeSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventNext, EventSelect}}, descriptors(5, 7), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	res, err := ctl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Index != 7 {
		t.Fatalf("expected index 7 after one advance, got %d", res.Index)
	}
	if len(src.opened) != 2 {
		t.Fatalf("expected 2 opens, got %d", len(src.opened))
	}
	if !src.opened[0].closed {
		t.Error("previous device must be released before the next one is opened")
	}
	if src.opened[1].closed {
		t.Error("current device closed while still selected")
	}
}

func TestStartIndexPositionsCursor(t *testing.T) {
	// End-to-end scenario: devices at [1 3], start at 3, one advance
	// wraps to 1, confirm selects 1.
	src := &fakeSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventNext, EventSelect}}, descriptors(1, 3), 3, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if got := ctl.Cursor(); got != 1 {
		t.Fatalf("expected cursor to start at position 1 (index 3), got %d", got)
	}

	res, err := ctl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Selected || res.Index != 1 {
		t.Fatalf("expected selection of index 1 after wrap, got %+v", res)
	}
}

func TestStartIndexAbsentFallsBackToFirst(t *testing.T) {
	ctl, err := NewController(&fakeSource{}, &scriptDisplay{}, descriptors(2, 4), 9, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if got := ctl.Cursor(); got != 0 {
		t.Errorf("expected cursor 0 for absent start index, got %d", got)
	}
}

func TestReadFailureAbortsBrowsing(t *testing.T) {
	src := &brokenSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventNone, EventNone}}, descriptors(0), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	_, err = ctl.Run(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !src.dev.closed {
		t.Error("failed device left open")
	}
}

type brokenSource struct {
	dev *fakeDevice
}

func (s *brokenSource) Open(index int) (capture.Device, error) {
	s.dev = &fakeDevice{index: index, frames: 0}
	return s.dev, nil
}

func TestCanceledContextQuitsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{}
	ctl, err := NewController(src, &scriptDisplay{events: []Event{EventSelect}}, descriptors(0), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	res, err := ctl.Run(ctx)
	if err != nil {
		t.Fatalf("interrupt is a clean stop, got: %v", err)
	}
	if res.Selected {
		t.Fatal("interrupt must not produce a selection")
	}
	if !src.opened[0].closed {
		t.Error("device left open after interrupt")
	}
}

func TestNoCandidatesRejected(t *testing.T) {
	_, err := NewController(&fakeSource{}, &scriptDisplay{}, nil, 0, time.Millisecond, nil)
	if !errors.Is(err, capture.ErrNoDevices) {
		t.Fatalf("expected ErrNoDevices, got %v", err)
	}
}

func TestPreviewLabelsCarryDeviceIndex(t *testing.T) {
	src := &fakeSource{}
	disp := &scriptDisplay{events: []Event{EventNone, EventSelect}}
	ctl, err := NewController(src, disp, descriptors(4), 0, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if _, err := ctl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(disp.labels) == 0 {
		t.Fatal("no frames rendered")
	}
	for _, l := range disp.labels {
		if l != "Camera 4" {
			t.Errorf("unexpected label %q", l)
		}
	}
}
