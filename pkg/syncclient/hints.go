package syncclient

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// HintListener subscribes to the server's websocket append hints and pokes the loop on each one,
// so new updates surface before the next scheduled tick. Polling stays the source of truth.
type HintListener struct {
	url     string
	loop    *Loop
	dialer  *websocket.Dialer
	backoff time.Duration
	logger  *slog.Logger
}

func NewHintListener(baseURL string, loop *Loop, logger *slog.Logger) (*HintListener, error) {
	u, err := hintURL(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HintListener{
		url:     u,
		loop:    loop,
		dialer:  websocket.DefaultDialer,
		backoff: time.Second,
		logger:  logger,
	}, nil
}

func hintURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String(), nil
}

// Run keeps a connection open until ctx is cancelled, reconnecting with capped backoff.
func (h *HintListener) Run(ctx context.Context) error {
	wait := h.backoff
	for {
		connected, err := h.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			wait = h.backoff
		}
		h.logger.Debug("hint stream closed, reconnecting", "err", err, "in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if wait < 30*time.Second {
			wait *= 2
		}
	}
}

func (h *HintListener) listen(ctx context.Context) (bool, error) {
	conn, _, err := h.dialer.DialContext(ctx, h.url, nil)
	if err != nil {
		return false, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return true, err
		}
		h.loop.Poke()
	}
}
