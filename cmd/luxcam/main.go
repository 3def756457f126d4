package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikeyg42/luxcam/internal/capture"
	"github.com/mikeyg42/luxcam/internal/config"
	"github.com/mikeyg42/luxcam/internal/display"
	"github.com/mikeyg42/luxcam/internal/luminance"
	"github.com/mikeyg42/luxcam/internal/netconn"
	"github.com/mikeyg42/luxcam/internal/selection"
	"github.com/mikeyg42/luxcam/internal/sender"
	"github.com/mikeyg42/luxcam/internal/validate"
	"github.com/mikeyg42/luxcam/internal/video"
)

// Application struct that holds all components
type Application struct {
	config *config.Config
	log    *zap.Logger
	source capture.Source
	window *display.Window
	conn   io.WriteCloser
	stream *luminance.Stream
}

func main() {
	cfg := config.NewDefaultConfig()

	flag.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "remote controller: host:port (TCP) or ws:// URL")
	flag.IntVar(&cfg.MaxIndex, "max-index", cfg.MaxIndex, "probe device indices 0..N-1")
	flag.IntVar(&cfg.StartIndex, "start-index", cfg.StartIndex, "preferred default device index")
	flag.DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between transmitted samples")
	flag.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "per-device probe timeout during scan")
	flag.DurationVar(&cfg.ClipDuration, "clip", cfg.ClipDuration, "record a confirmation clip of this length (0 = off)")
	flag.StringVar(&cfg.ClipDir, "clip-dir", cfg.ClipDir, "directory for confirmation clips")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose logging")
	flag.Parse()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run", uuid.NewString()))

	if err := validate.ValidateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// An interrupt is a clean, intentional stop: cancel the context and
	// let each phase unwind and release what it holds.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{
		config: cfg,
		log:    logger,
		source: capture.NewVideoSource(),
	}
	defer app.Cleanup()

	if err := app.Run(ctx); err != nil {
		if errors.Is(err, capture.ErrNoDevices) {
			logger.Warn("no working cameras found; close other apps using the camera and retry")
			return
		}
		logger.Fatal("run failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Run executes the phases strictly in sequence: connect, scan, select,
// optionally record a clip, then sample and stream. Exactly one phase
// owns the capture device at a time.
func (app *Application) Run(ctx context.Context) error {
	conn, err := netconn.Dial(ctx, app.config.Endpoint, app.log)
	if err != nil {
		return err
	}
	app.conn = conn

	scanner := capture.NewScanner(app.source, app.config.ProbeTimeout, app.log)
	cams := scanner.Scan(ctx, app.config.MaxIndex)
	if len(cams) == 0 {
		return capture.ErrNoDevices
	}
	app.log.Info("scan complete", zap.Int("devices", len(cams)))

	res, err := app.selectDevice(ctx, cams)
	if err != nil {
		return err
	}
	if !res.Selected {
		app.log.Info("no camera selected, exiting")
		return nil
	}
	app.log.Info("streaming from selected camera", zap.Int("index", res.Index))

	if app.config.ClipDuration > 0 {
		app.recordClip(ctx, res)
	}

	// Ownership of the open device passes to the sample stream here;
	// the stream releases it when the sequence ends.
	app.stream = luminance.NewStream(res.Device)
	snd := sender.New(app.config.Interval, app.log)
	return snd.Run(ctx, app.stream, app.conn)
}

func (app *Application) selectDevice(ctx context.Context, cams []capture.Descriptor) (selection.Result, error) {
	app.window = display.NewWindow(app.config.WindowTitle)
	defer func() {
		if err := app.window.Close(); err != nil {
			app.log.Warn("failed to close preview window", zap.Error(err))
		}
		app.window = nil
	}()

	fmt.Println("Controls: 'n' next camera, 's' select, 'q' quit")

	ctl, err := selection.NewController(app.source, app.window, cams, app.config.StartIndex, app.config.PollTimeout, app.log)
	if err != nil {
		return selection.Result{}, err
	}
	return ctl.Run(ctx)
}

// recordClip is best effort: a failed clip must not stop the stream.
func (app *Application) recordClip(ctx context.Context, res selection.Result) {
	rec := video.NewClipRecorder(&video.ClipConfig{
		OutputDir: app.config.ClipDir,
		Duration:  app.config.ClipDuration,
	}, app.log)
	if _, err := rec.Record(ctx, res.Device, res.Index); err != nil {
		app.log.Warn("clip recording failed", zap.Error(err))
	}
}

func (app *Application) Cleanup() {
	if app.stream != nil {
		if err := app.stream.Close(); err != nil {
			app.log.Warn("failed to release capture device", zap.Error(err))
		}
	}
	if app.conn != nil {
		if err := app.conn.Close(); err != nil {
			app.log.Warn("failed to close connection", zap.Error(err))
		}
	}
}
