package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Egress pushes events over a single websocket connection to the bot
// gateway. The connection is dialed lazily on first send and redialed
// once when a write fails.
type Egress struct {
	wsURL string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewEgress(wsURL string) *Egress {
	return &Egress{wsURL: wsURL}
}

func (e *Egress) Send(ctx context.Context, ev Event) error {
	if e == nil || e.wsURL == "" {
		return errors.New("egress not configured")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writeLocked(ctx, ev); err == nil {
		return nil
	}
	// stale connection; drop it and try one fresh dial
	e.closeLocked()
	return e.writeLocked(ctx, ev)
}

func (e *Egress) writeLocked(ctx context.Context, ev Event) error {
	if e.conn == nil {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.Dial(dialCtx, e.wsURL, &websocket.DialOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		cancel()
		if err != nil {
			return err
		}
		e.conn = conn
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(wctx, e.conn, ev)
}

func (e *Egress) closeLocked() {
	if e.conn != nil {
		_ = e.conn.Close(websocket.StatusGoingAway, "reconnect")
		e.conn = nil
	}
}

func (e *Egress) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}
