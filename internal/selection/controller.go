// Package selection drives the interactive camera pick: a small state
// machine that previews one candidate at a time and lets the operator
// cycle through them or confirm one.
package selection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/mikeyg42/luxcam/internal/capture"
)

// Event is one discrete operator input.
type Event int

const (
	EventNone Event = iota
	EventNext
	EventSelect
	EventQuit
)

// Display shows preview frames and polls for operator input. Poll must
// return within roughly the given timeout so the preview stays live.
type Display interface {
	Render(frame gocv.Mat, label string)
	Poll(timeout time.Duration) Event
}

// Result of a selection run. When Selected is true, Device is the
// still-open handle of the chosen camera and the caller now owns it.
type Result struct {
	Index    int
	Device   capture.Device
	Selected bool
}

// Controller cycles through scanned candidates with a live preview.
// Exactly one candidate's device handle is open at any moment.
type Controller struct {
	source      capture.Source
	display     Display
	candidates  []capture.Descriptor
	cursor      int
	pollTimeout time.Duration
	log         *zap.Logger
}

// NewController positions the cursor at startIndex when that index is
// among the candidates, else at the first candidate.
func NewController(source capture.Source, display Display, candidates []capture.Descriptor, startIndex int, pollTimeout time.Duration, log *zap.Logger) (*Controller, error) {
	if len(candidates) == 0 {
		return nil, capture.ErrNoDevices
	}
	if log == nil {
		log = zap.NewNop()
	}
	cursor := 0
	for i, d := range candidates {
		if d.Index == startIndex {
			cursor = i
			break
		}
	}
	return &Controller{
		source:      source,
		display:     display,
		candidates:  candidates,
		cursor:      cursor,
		pollTimeout: pollTimeout,
		log:         log.Named("select"),
	}, nil
}

// Cursor returns the position within the candidate list currently
// being previewed.
func (c *Controller) Cursor() int { return c.cursor }

// Run previews candidates until the operator confirms one or quits.
// A confirm hands the open device over to the caller inside Result; on
// quit (or context cancellation) the handle is released and Selected is
// false. A read failure on the previewed device aborts the run with an
// error rather than showing a frozen preview.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	dev, err := c.open()
	if err != nil {
		return Result{}, err
	}

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ctx.Err() != nil {
			c.log.Info("selection interrupted")
			_ = dev.Close()
			return Result{}, nil
		}

		if !dev.Read(&frame) {
			idx := c.current().Index
			_ = dev.Close()
			return Result{}, fmt.Errorf("preview read on device %d failed: %w", idx, capture.ErrDeviceUnavailable)
		}
		if !frame.Empty() {
			c.display.Render(frame, fmt.Sprintf("Camera %d", c.current().Index))
		}

		switch c.display.Poll(c.pollTimeout) {
		case EventNext:
			_ = dev.Close()
			c.cursor = (c.cursor + 1) % len(c.candidates)
			dev, err = c.open()
			if err != nil {
				return Result{}, err
			}
		case EventSelect:
			c.log.Info("device selected", zap.Int("index", c.current().Index))
			return Result{Index: c.current().Index, Device: dev, Selected: true}, nil
		case EventQuit:
			c.log.Info("selection quit")
			_ = dev.Close()
			return Result{}, nil
		}
	}
}

func (c *Controller) current() capture.Descriptor { return c.candidates[c.cursor] }

func (c *Controller) open() (capture.Device, error) {
	d := c.current()
	c.log.Debug("previewing device", zap.Int("index", d.Index))
	dev, err := c.source.Open(d.Index)
	if err != nil {
		return nil, fmt.Errorf("open device %d for preview: %w", d.Index, err)
	}
	return dev, nil
}
