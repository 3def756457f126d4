// Package sender throttles a brightness sample stream to one
// transmission per fixed interval and writes each transmitted value to
// an established connection as a 4-byte big-endian IEEE-754 float.
package sender

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/luxcam/internal/luminance"
)

// WireSampleSize is the exact size of one transmitted unit. There is no
// framing, no length prefix and no acknowledgment.
const WireSampleSize = 4

// ErrConnectionFailure marks a failed write on the connection. Fatal to
// the run: there is no retry or reconnect policy.
var ErrConnectionFailure = errors.New("connection write failed")

// EncodeSample encodes a brightness value as big-endian IEEE-754
// single precision. The remote controller expects this byte order;
// confirm before pointing the sender at different hardware.
func EncodeSample(value float64) [WireSampleSize]byte {
	var buf [WireSampleSize]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(float32(value)))
	return buf
}

// DecodeSample reverses EncodeSample, at single-precision resolution.
func DecodeSample(buf [WireSampleSize]byte) float64 {
	return float64(math.Float32frombits(binary.BigEndian.Uint32(buf[:])))
}

// SampleSource is the upstream sample sequence; Next reports false when
// the sequence is exhausted.
type SampleSource interface {
	Next() (luminance.Sample, bool)
}

// Sender forwards at most one sample per Interval, discarding samples
// that arrive between interval boundaries. It is a throttle, not a
// scheduler: cadence is bounded below by Interval and by the upstream
// pull rate, never guaranteed exact.
type Sender struct {
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func New(interval time.Duration, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{interval: interval, now: time.Now, log: log.Named("send")}
}

// Run pulls samples until the source is exhausted or ctx is canceled,
// writing one encoded sample per interval. Samples are transmitted in
// acquisition order; skipped samples are dropped, never queued or
// averaged. A write failure is fatal and propagated immediately.
func (s *Sender) Run(ctx context.Context, src SampleSource, conn io.Writer) error {
	lastSent := s.now()
	sent := 0
	for {
		if err := ctx.Err(); err != nil {
			s.log.Info("send loop interrupted", zap.Int("samplesSent", sent))
			return nil
		}

		sample, ok := src.Next()
		if !ok {
			s.log.Info("sample stream ended", zap.Int("samplesSent", sent))
			return nil
		}

		now := s.now()
		if now.Sub(lastSent) < s.interval {
			continue
		}

		buf := EncodeSample(sample.Value)
		if _, err := conn.Write(buf[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrConnectionFailure, err)
		}
		lastSent = now
		sent++
		s.log.Debug("sample sent",
			zap.Float64("value", sample.Value),
			zap.String("payload", hex.EncodeToString(buf[:])))
	}
}
