// Package netconn establishes the point-to-point connection the sender
// writes to. Endpoints of the form ws:// or wss:// connect over a
// websocket and carry each wire sample as one binary message; anything
// else is treated as a host:port TCP address.
package netconn

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Initial connection establishment retries with exponential backoff up
// to this budget. Once connected, write failures are never retried.
const maxConnectElapsed = 30 * time.Second

// IsWebSocket reports whether the endpoint names a websocket URL.
func IsWebSocket(endpoint string) bool {
	return strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://")
}

// Dial connects to the remote controller, retrying transient failures
// until maxConnectElapsed or ctx cancellation.
func Dial(ctx context.Context, endpoint string, log *zap.Logger) (io.WriteCloser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("conn")

	var conn io.WriteCloser
	op := func() error {
		c, err := dialOnce(ctx, endpoint)
		if err != nil {
			log.Warn("connect attempt failed", zap.String("endpoint", endpoint), zap.Error(err))
			return err
		}
		conn = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxConnectElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	log.Info("connected", zap.String("endpoint", endpoint))
	return conn, nil
}

func dialOnce(ctx context.Context, endpoint string) (io.WriteCloser, error) {
	if IsWebSocket(endpoint) {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			return nil, err
		}
		return &wsWriter{conn: c}, nil
	}

	var d net.Dialer
	return d.DialContext(ctx, "tcp", endpoint)
}

// wsWriter adapts a websocket connection to io.WriteCloser; each Write
// becomes one binary message.
type wsWriter struct {
	conn *websocket.Conn
}

func (w *wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}
