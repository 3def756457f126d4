package config

import "time"

// Config holds all application configuration
type Config struct {
	// Endpoint is the remote controller: "host:port" for raw TCP, or a
	// ws:// / wss:// URL for websocket transport.
	Endpoint string

	// MaxIndex bounds the device scan: indices 0..MaxIndex-1 are probed.
	MaxIndex int

	// StartIndex is the preferred default device for selection.
	StartIndex int

	// Interval between transmitted brightness samples.
	Interval time.Duration

	// ProbeTimeout bounds each per-index probe during the scan.
	ProbeTimeout time.Duration

	// PollTimeout bounds each keyboard poll while previewing.
	PollTimeout time.Duration

	WindowTitle string

	// ClipDuration > 0 records a confirmation clip of the selected
	// camera before streaming begins.
	ClipDuration time.Duration
	ClipDir      string

	Debug bool
}

// NewDefaultConfig returns a Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:     "192.164.1.2:5010",
		MaxIndex:     10,
		StartIndex:   0,
		Interval:     time.Second,
		ProbeTimeout: 5 * time.Second,
		PollTimeout:  30 * time.Millisecond,
		WindowTitle:  "Live Camera View",
		ClipDuration: 0,
		ClipDir:      "clips/",
	}
}
